package main

import (
	"github.com/spf13/cobra"

	"github.com/cory-johannsen/shipyard/internal/importer"
)

func newVehiclesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "vehicles [class...]",
		Short: "Build vehicle reports, for the named classes or every vehicle",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer eng.Close()

			var src importer.Source = importer.VehicleSource(eng.svc.Index)
			if len(args) > 0 {
				src = importer.StaticSource(args)
			}
			sum, err := newImporter(a.cfg, a.logger).Vehicles(cmd.Context(), src, eng.vehicles, a.cfg.Output.Dir)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), "vehicles", sum)
			return nil
		},
	}
}
