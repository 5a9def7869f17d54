// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// DefaultAPIKeyEnv names the environment variable holding the completion API key.
	DefaultAPIKeyEnv = "OPENAI_API_KEY"
	// DefaultBaseURL is the OpenAI-compatible API root used when none is configured.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is the chat model used for grading.
	DefaultModel = "gpt-3.5-turbo"
	// DefaultBatchLimit caps the number of records evaluated per batch run.
	DefaultBatchLimit = 10

	defaultTemperature    = 0.4
	defaultMaxTokens      = 800
	defaultRequestTimeout = 60 * time.Second
	defaultListen         = ":8080"
	defaultLogFile        = "qaeval.log"
	defaultMaxUploadMB    = 5

	defaultQuestionColumn = "고객질문"
	defaultAnswerColumn   = "상담사답변"
	defaultResultColumn   = "GPT평가결과"
)

// Config represents the top-level application configuration.
type Config struct {
	BaseURL        string   `json:"baseURL,omitempty" mapstructure:"baseURL"`
	Model          string   `json:"model,omitempty" mapstructure:"model"`
	APIKeyEnv      string   `json:"apiKeyEnv,omitempty" mapstructure:"apiKeyEnv"`
	APIKey         string   `json:"-" mapstructure:"apiKey"`
	Temperature    *float64 `json:"temperature,omitempty" mapstructure:"temperature"`
	MaxTokens      int      `json:"maxTokens,omitempty" mapstructure:"maxTokens"`
	TimeoutSeconds int      `json:"timeout,omitempty" mapstructure:"timeout"`
	BatchLimit     int      `json:"batchLimit,omitempty" mapstructure:"batchLimit"`
	Listen         string   `json:"listen,omitempty" mapstructure:"listen"`
	LogFile        string   `json:"logFile,omitempty" mapstructure:"logFile"`
	Debug          bool     `json:"debug" mapstructure:"debug"`
	QuestionColumn string   `json:"questionColumn,omitempty" mapstructure:"questionColumn"`
	AnswerColumn   string   `json:"answerColumn,omitempty" mapstructure:"answerColumn"`
	ResultColumn   string   `json:"resultColumn,omitempty" mapstructure:"resultColumn"`
	MaxUploadMB    int      `json:"maxUploadMB,omitempty" mapstructure:"maxUploadMB"`
	ConfigPath     string   `json:"-" mapstructure:"-"`
}

// RequestTimeout returns the per-request budget for completion calls.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SamplingTemperature returns the configured temperature or the rubric default.
func (c Config) SamplingTemperature() float64 {
	if c.Temperature == nil {
		return defaultTemperature
	}
	return *c.Temperature
}

// MaxOutputTokens returns the completion length cap.
func (c Config) MaxOutputTokens() int {
	if c.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return c.MaxTokens
}

// BatchLimitOrDefault returns how many records a batch run evaluates at most.
func (c Config) BatchLimitOrDefault() int {
	if c.BatchLimit <= 0 {
		return DefaultBatchLimit
	}
	return c.BatchLimit
}

// ModelName returns the configured model, falling back to DefaultModel.
func (c Config) ModelName() string {
	if m := strings.TrimSpace(c.Model); m != "" {
		return m
	}
	return DefaultModel
}

// APIBaseURL returns the completion API root without a trailing slash.
func (c Config) APIBaseURL() string {
	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimRight(base, "/")
}

// ResolveAPIKey returns the explicit key if set, otherwise the value of the
// configured environment variable. An empty result is not an error here; the
// provider reports it on first use.
func (c Config) ResolveAPIKey() string {
	if key := strings.TrimSpace(c.APIKey); key != "" {
		return key
	}
	env := strings.TrimSpace(c.APIKeyEnv)
	if env == "" {
		env = DefaultAPIKeyEnv
	}
	return strings.TrimSpace(os.Getenv(env))
}

// ListenAddr returns the HTTP listen address for the web form.
func (c Config) ListenAddr() string {
	if l := strings.TrimSpace(c.Listen); l != "" {
		return l
	}
	return defaultListen
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return defaultLogFile
}

// MaxUploadBytes returns the upload size limit for batch CSV files.
func (c Config) MaxUploadBytes() int64 {
	mb := c.MaxUploadMB
	if mb <= 0 {
		mb = defaultMaxUploadMB
	}
	return int64(mb) << 20
}

// Columns returns the question, answer and result column names.
func (c Config) Columns() (question, answer, result string) {
	question, answer, result = c.QuestionColumn, c.AnswerColumn, c.ResultColumn
	if strings.TrimSpace(question) == "" {
		question = defaultQuestionColumn
	}
	if strings.TrimSpace(answer) == "" {
		answer = defaultAnswerColumn
	}
	if strings.TrimSpace(result) == "" {
		result = defaultResultColumn
	}
	return question, answer, result
}

// Load reads the application configuration from the specified path. A missing
// file at the default path yields the built-in defaults.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err == nil {
		if err := config.Validate(); err != nil {
			return Config{}, err
		}
		config.ConfigPath = path
		return config, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		if !explicit {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("no configuration file found at %q", path)
	}

	return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
}

// Validate rejects settings that cannot produce a working run.
func (c Config) Validate() error {
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", *c.Temperature)
	}
	if c.BatchLimit < 0 {
		return fmt.Errorf("batchLimit must not be negative, got %d", c.BatchLimit)
	}
	q, a, r := c.Columns()
	if q == a || q == r || a == r {
		return errors.New("questionColumn, answerColumn and resultColumn must be distinct")
	}
	return nil
}

// loadFromPath is a helper function that loads the configuration from a specific file path.
func loadFromPath(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return Config{}, err
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = int(defaultRequestTimeout.Seconds())
	}

	return config, nil
}
