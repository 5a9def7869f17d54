package appconfig

import (
	"fmt"
	"io"
	"strings"

	"github.com/k0kubun/pp"
)

// ShowConfig prints the current configuration summary. With debug enabled the
// full struct is dumped as well, with the API key masked.
func ShowConfig(out io.Writer, file string, cfg *Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	if cfg == nil {
		cfg = &Config{}
	}
	question, answer, result := cfg.Columns()

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Base URL:        %s\n", cfg.APIBaseURL())
	fmt.Fprintf(out, "  Model:           %s\n", cfg.ModelName())
	fmt.Fprintf(out, "  API Key:         %s\n", MaskSecret(cfg.ResolveAPIKey()))
	fmt.Fprintf(out, "  Temperature:     %.2f\n", cfg.SamplingTemperature())
	fmt.Fprintf(out, "  Max Tokens:      %d\n", cfg.MaxOutputTokens())
	fmt.Fprintf(out, "  Timeout:         %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Batch Limit:     %d\n", cfg.BatchLimitOrDefault())
	fmt.Fprintf(out, "  Listen:          %s\n", cfg.ListenAddr())
	fmt.Fprintf(out, "  Log File:        %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Columns:         %s / %s -> %s\n", question, answer, result)
	fmt.Fprintf(out, "  Debug:           %v\n", cfg.Debug)

	if cfg.Debug {
		masked := *cfg
		masked.APIKey = MaskSecret(cfg.APIKey)
		coloring := pp.ColoringEnabled
		pp.ColoringEnabled = false
		_, _ = pp.Fprintln(out, masked)
		pp.ColoringEnabled = coloring
	}
}

// MaskSecret keeps the last four characters of a secret.
func MaskSecret(secret string) string {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 8) + secret[len(secret)-4:]
}
