// internal/cli/show_config.go
package qaeval

import (
	"github.com/spf13/cobra"

	"github.com/mwiater/qaeval/internal/appconfig"
)

// showConfigCmd implements 'show config'.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the JSON config is loaded properly and overridden by flags and environment accordingly.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := getConfig()
		appconfig.ShowConfig(cmd.OutOrStdout(), cfg.ConfigPath, cfg)
	},
}

func init() {
	showCmd.AddCommand(showConfigCmd)
}
