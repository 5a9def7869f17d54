// internal/cli/serve.go
package qaeval

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/qaeval/internal/web"
)

// serveCmd starts the web form and JSON API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the evaluation web form",
	Long:  `The 'serve' command starts the HTTP server with the single and batch evaluation forms and the JSON API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, web.NewServer(newService(cfg), cfg))
	},
}

var serve = func(ctx context.Context, srv *web.Server) error {
	return srv.ListenAndServe(ctx)
}

func init() {
	serveCmd.Flags().String("listen", "", "listen address (default :8080)")
	_ = viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
	rootCmd.AddCommand(serveCmd)
}
