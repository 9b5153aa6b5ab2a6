package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/boqa/internal/metrics"
	"github.com/happyhackingspace/boqa/internal/server"
)

func (c *CLI) newServeCommand() *cobra.Command {
	var flags engineFlags
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ranking engine over HTTP",
		Example: `  boqa serve --obo hp.obo --assoc annotations.tsv --port 8080

  # then:
  curl -s localhost:8080/api/v1/rank -d '{"terms": ["HP:0001250"]}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, cfg, err := flags.load()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}

			m := metrics.New(nil)
			srv := server.New(engine, cfg.Server, m)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := srv.Run(ctx); err != nil {
				return internalError(err)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (overrides the config file)")
	return cmd
}
