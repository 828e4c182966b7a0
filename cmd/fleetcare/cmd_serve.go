package main

import (
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the maintenance API over HTTP",
	Long: `Serves the Connect procedures of fleetcare.v1.MaintenanceService with JSON
bodies, plus /metrics and /healthz, until interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	k, err := newKernel()
	if err != nil {
		return err
	}
	defer k.Close()

	logger.Info("serving maintenance API", "addr", cfg.Server.Addr, "nats", cfg.Notify.URL != "")
	return k.Serve(cmd.Context())
}
