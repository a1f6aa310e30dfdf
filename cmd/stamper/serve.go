package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/stamper/internal/api"
	"github.com/JaimeStill/stamper/internal/server"
	"github.com/JaimeStill/stamper/pkg/openapi"
)

func newServeCommand(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != 0 {
				a.cfg.Server.Port = port
			}
			a.cfg.Logging.Level = a.level

			srv, err := server.New(a.cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := srv.Start(); err != nil {
				return err
			}

			<-cmd.Context().Done()
			return srv.Shutdown(a.shutdownTimeout())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")

	return cmd
}

func newOpenAPICommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI description of the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := api.BuildSpec(a.cfg)
			if output != "" {
				if err := openapi.WriteFile(spec, output); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
				return nil
			}

			return openapi.WriteJSON(spec, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")

	return cmd
}
