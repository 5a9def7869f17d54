// internal/cli/root.go
package qaeval

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/qaeval/internal/appconfig"
	"github.com/mwiater/qaeval/internal/logging"
	"github.com/mwiater/qaeval/internal/providers"
	"github.com/mwiater/qaeval/internal/providers/openai"
	"github.com/mwiater/qaeval/internal/qa"
)

var (
	cfgFile       string
	currentConfig *appconfig.Config
)

// newCompleter builds the completion client; tests swap it for a fake.
var newCompleter = func(cfg *appconfig.Config) providers.Completer {
	return openai.New(cfg)
}

var rootCmd = &cobra.Command{
	Use:           "qaeval",
	Short:         "qaeval: grade customer-service answers against a fixed QA rubric",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 1) Load config (file or defaults)
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		// 2) Keep the debug flag in sync with the merged value.
		if !cmd.Flags().Changed("debug") {
			_ = cmd.Flags().Set("debug", strconv.FormatBool(viper.GetBool("debug")))
		}

		// 3) Materialize the merged configuration (flags > env > config > defaults).
		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		cfg.ConfigPath = viper.ConfigFileUsed()
		currentConfig = &cfg

		if err := logging.Init(cfg.LogFilePath(), cfg.Debug); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
		logging.LogEvent("qaeval %s: model=%s config=%q", cmd.Name(), cfg.ModelName(), cfg.ConfigPath)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Close()
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default "+appconfig.DefaultConfigPath+")")

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging to stdout")
	rootCmd.PersistentFlags().String("logFile", "", "path of the log file (default qaeval.log)")
	rootCmd.PersistentFlags().String("model", "", "chat model used for grading (default "+appconfig.DefaultModel+")")
	rootCmd.PersistentFlags().String("baseURL", "", "OpenAI-compatible API root (default "+appconfig.DefaultBaseURL+")")
	rootCmd.PersistentFlags().Int("timeout", 0, "per-request timeout in seconds (default 60)")

	for _, name := range []string{"debug", "logFile", "model", "baseURL", "timeout"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
	_ = viper.BindEnv("apiKey", appconfig.DefaultAPIKeyEnv)
}

func initConfig() {
	viper.SetConfigType("json")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		return
	}
	viper.SetConfigFile(appconfig.DefaultConfigPath)
}

// ensureConfigLoaded reads the config and sets safe defaults. A missing file
// is only an error when --config was given explicitly.
func ensureConfigLoaded() error {
	viper.SetDefault("debug", false)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || (cfgFile == "" && errors.Is(err, fs.ErrNotExist)) {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// getConfig returns the loaded application configuration.
func getConfig() *appconfig.Config {
	if currentConfig == nil {
		return &appconfig.Config{}
	}
	return currentConfig
}

// newService wires the completion client into the grading service.
func newService(cfg *appconfig.Config) *qa.Service {
	return qa.NewService(newCompleter(cfg), cfg)
}

// DebugEnabled reflects the merged debug setting.
func DebugEnabled() bool { return viper.GetBool("debug") }
