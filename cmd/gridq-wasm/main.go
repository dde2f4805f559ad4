//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"syscall/js"

	"github.com/sirupsen/logrus"

	"gridq/internal/config"
	"gridq/internal/engine"
	"gridq/internal/experiment"
)

const (
	statusResult    = "result"
	statusDone      = "done"
	statusCancelled = "cancelled"
	statusError     = "error"
)

var (
	startFnOnce sync.Once
	runMu       sync.Mutex
	currentCtx  context.CancelFunc
	onReport    js.Value
	log         = logrus.New()
)

func main() {
	registerCallbacks()
	// Prevent the program from exiting.
	select {}
}

func registerCallbacks() {
	startFnOnce.Do(func() {
		js.Global().Set("gridqRegisterReportHandler", js.FuncOf(registerReportHandler))
		js.Global().Set("gridqRunExperiment", js.FuncOf(runExperiment))
		js.Global().Set("gridqStop", js.FuncOf(stopExperiment))
	})
}

func registerReportHandler(this js.Value, args []js.Value) interface{} {
	if len(args) != 1 || args[0].Type() != js.TypeFunction {
		log.Error("gridqRegisterReportHandler requires a function argument")
		return nil
	}
	onReport = args[0]
	return nil
}

func runExperiment(this js.Value, args []js.Value) interface{} {
	settings := config.Defaults()
	if len(args) > 0 && args[0].Type() == js.TypeString {
		if err := json.Unmarshal([]byte(args[0].String()), &settings); err != nil {
			log.WithError(err).Error("invalid settings")
			return nil
		}
	}
	if onReport.IsUndefined() || onReport.IsNull() {
		log.Error("report handler not registered")
		return nil
	}

	runMu.Lock()
	if currentCtx != nil {
		currentCtx()
	}
	ctx, cancel := context.WithCancel(context.Background())
	currentCtx = cancel
	runMu.Unlock()

	runner, err := experiment.NewRunner(experiment.ParamsFromSettings(settings),
		experiment.WithLogger(log),
		experiment.WithResultHandler(func(res experiment.Result) {
			onReport.Invoke(resultToJS(statusResult, res))
		}),
	)
	if err != nil {
		onReport.Invoke(js.ValueOf(map[string]interface{}{"status": statusError, "error": err.Error()}))
		return nil
	}
	go func() {
		r, err := runner.Run(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			onReport.Invoke(js.ValueOf(map[string]interface{}{"status": statusCancelled}))
		case err != nil:
			onReport.Invoke(js.ValueOf(map[string]interface{}{"status": statusError, "error": err.Error()}))
		default:
			best := r.Best()
			onReport.Invoke(js.ValueOf(map[string]interface{}{
				"status":     statusDone,
				"runId":      r.ID.String(),
				"durationMs": r.Duration.Milliseconds(),
				"best":       best.Source,
			}))
		}
	}()
	return nil
}

func stopExperiment(this js.Value, args []js.Value) interface{} {
	runMu.Lock()
	if currentCtx != nil {
		currentCtx()
		currentCtx = nil
	}
	runMu.Unlock()
	return nil
}

func resultToJS(status string, res experiment.Result) js.Value {
	worldRewards := make([]interface{}, len(res.WorldRewards))
	for i, v := range res.WorldRewards {
		worldRewards[i] = v
	}
	valueMap := make([]interface{}, 0)
	policy := make([]interface{}, 0)
	if res.Q != nil {
		for _, row := range res.Q.StateValues() {
			rowCopy := make([]interface{}, len(row))
			for j, v := range row {
				rowCopy[j] = v
			}
			valueMap = append(valueMap, rowCopy)
		}
		for _, row := range res.Q.Policy() {
			rowCopy := make([]interface{}, len(row))
			for j, a := range row {
				rowCopy[j] = a.String()
			}
			policy = append(policy, rowCopy)
		}
	}
	payload := map[string]interface{}{
		"status":        status,
		"source":        res.Source,
		"trainedOn":     res.TrainedOn,
		"trainReward":   res.TrainReward,
		"averageReward": res.AverageReward,
		"worldRewards":  worldRewards,
		"valueMap":      valueMap,
		"policy":        policy,
		"actions":       engine.NumActions,
	}
	return js.ValueOf(payload)
}
