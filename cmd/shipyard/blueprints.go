package main

import (
	"github.com/spf13/cobra"

	"github.com/cory-johannsen/shipyard/internal/importer"
)

func newBlueprintsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "blueprints [class...]",
		Short: "Build crafting blueprint reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer eng.Close()

			var src importer.Source = importer.BlueprintSource(eng.svc.Index)
			if len(args) > 0 {
				src = importer.StaticSource(args)
			}
			b := importer.NewBlueprints(eng.svc, a.logger)
			sum, err := newImporter(a.cfg, a.logger).Blueprints(cmd.Context(), src, b, a.cfg.Output.Dir)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), "blueprints", sum)
			return nil
		},
	}
}
