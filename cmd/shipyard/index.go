package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/shipyard/internal/index"
)

func newIndexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Scan the data directory and write the record index files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start := time.Now()
			ix, err := index.Build(cmd.Context(), a.cfg.Data.Dir, a.cfg.Run.Workers, a.logger)
			if err != nil {
				return fmt.Errorf("building index: %w", err)
			}
			if err := ix.Save(a.cfg.Data.Index()); err != nil {
				return fmt.Errorf("saving index: %w", err)
			}
			a.logger.Info("index written",
				zap.String("dir", a.cfg.Data.Index()),
				zap.Int("classes", ix.Len()),
				zap.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
			)
			return nil
		},
	}
}
