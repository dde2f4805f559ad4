package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Settings holds the experiment configuration.
type Settings struct {
	Episodes     int     // Training episodes per source world
	EvalRuns     int     // Repetitions of the four-world evaluation
	MaxSteps     int     // Step ceiling per episode
	StepReward   float64 // Reward charged for every non-goal step
	GoalReward   float64 // Reward of the goal cell in each standard world
	StepDiscount float64 // Discount applied to non-terminal transitions
	Alpha        float64 // Learning rate
	Epsilon      float64 // Probability of the greedy action during training
	Seed         int64   // Random seed; 0 selects the default seed
	LogLevel     string  // logrus level name
	NoColor      bool    // Disable ANSI colors in terminal output
	ChartPath    string  // Optional HTML chart output path
}

// Defaults returns the reference settings of the averaged-world experiment.
func Defaults() Settings {
	return Settings{
		Episodes:     1000,
		EvalRuns:     10,
		MaxSteps:     10000,
		StepReward:   -1,
		GoalReward:   100,
		StepDiscount: 0.99,
		Alpha:        0.1,
		Epsilon:      0.95,
		Seed:         1,
		LogLevel:     "info",
	}
}

// Load reads GRIDQ_* variables on top of Defaults. A .env file in the working
// directory is loaded first when present; existing variables win over it.
func Load(files ...string) (Settings, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("loading env file: %w", err)
	}
	s := Defaults()
	var err error
	if s.Episodes, err = getEnvAsInt("GRIDQ_EPISODES", s.Episodes); err != nil {
		return Settings{}, err
	}
	if s.EvalRuns, err = getEnvAsInt("GRIDQ_EVAL_RUNS", s.EvalRuns); err != nil {
		return Settings{}, err
	}
	if s.MaxSteps, err = getEnvAsInt("GRIDQ_MAX_STEPS", s.MaxSteps); err != nil {
		return Settings{}, err
	}
	if s.StepReward, err = getEnvAsFloat("GRIDQ_STEP_REWARD", s.StepReward); err != nil {
		return Settings{}, err
	}
	if s.GoalReward, err = getEnvAsFloat("GRIDQ_GOAL_REWARD", s.GoalReward); err != nil {
		return Settings{}, err
	}
	if s.StepDiscount, err = getEnvAsFloat("GRIDQ_STEP_DISCOUNT", s.StepDiscount); err != nil {
		return Settings{}, err
	}
	if s.Alpha, err = getEnvAsFloat("GRIDQ_ALPHA", s.Alpha); err != nil {
		return Settings{}, err
	}
	if s.Epsilon, err = getEnvAsFloat("GRIDQ_EPSILON", s.Epsilon); err != nil {
		return Settings{}, err
	}
	seed, err := getEnvAsInt("GRIDQ_SEED", int(s.Seed))
	if err != nil {
		return Settings{}, err
	}
	s.Seed = int64(seed)
	if s.NoColor, err = getEnvAsBool("GRIDQ_NO_COLOR", s.NoColor); err != nil {
		return Settings{}, err
	}
	s.LogLevel = getEnvWithDefault("GRIDQ_LOG_LEVEL", s.LogLevel)
	s.ChartPath = getEnvWithDefault("GRIDQ_CHART", s.ChartPath)
	return s, nil
}

// getEnvWithDefault retrieves the value of an environment variable or returns a default value if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be an integer: %w", key, err)
	}
	return v, nil
}

func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be a number: %w", key, err)
	}
	return v, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("environment variable %s must be a boolean: %w", key, err)
	}
	return v, nil
}
