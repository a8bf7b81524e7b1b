package main

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/cory-johannsen/shipyard/internal/assembly"
	"github.com/cory-johannsen/shipyard/internal/calc"
	"github.com/cory-johannsen/shipyard/internal/cargo"
	"github.com/cory-johannsen/shipyard/internal/classify"
	"github.com/cory-johannsen/shipyard/internal/config"
	"github.com/cory-johannsen/shipyard/internal/importer"
	"github.com/cory-johannsen/shipyard/internal/index"
	"github.com/cory-johannsen/shipyard/internal/loader"
	"github.com/cory-johannsen/shipyard/internal/portclass"
	"github.com/cory-johannsen/shipyard/internal/scripting"
	"github.com/cory-johannsen/shipyard/internal/vehicle"
)

// engine is the run-wide read-only context shared by every worker.
type engine struct {
	svc      *loader.Services
	vehicles *vehicle.Builder
	scripts  *scripting.Manager
}

// newEngine loads the index and wires loaders, assembler and pipeline.
//
// Postcondition: returns an engine whose Close must be called, or an error
// when the index is missing or the scripts fail to load.
func newEngine(cfg config.Config, logger *zap.Logger) (*engine, error) {
	ix, err := index.Load(cfg.Data.Index(), cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("loading index: %w", err)
	}
	svc := loader.NewServices(ix, classify.NewDefault().Classify)

	table, err := cargo.DefaultTable()
	if err != nil {
		return nil, fmt.Errorf("loading cargo table: %w", err)
	}
	calcs := calc.Standard(cargo.NewResolver(table))
	var scripts *scripting.Manager
	if cfg.Scripting.Dir != "" {
		scripts = scripting.NewManager(logger)
		if err := scripts.LoadDir(cfg.Scripting.Dir, cfg.Scripting.InstructionLimit); err != nil {
			scripts.Close()
			return nil, fmt.Errorf("loading scripts: %w", err)
		}
		calcs = append(calcs, scripts.Calculators()...)
	}

	builder := vehicle.NewBuilder(
		svc,
		assembly.New(svc.Items, cfg.Run.MaxDepth, logger),
		portclass.NewDefault(),
		calc.NewOrchestrator(logger, calcs...),
		constants(cfg.Calc),
		logger,
	)
	return &engine{svc: svc, vehicles: builder, scripts: scripts}, nil
}

func constants(c config.CalcConfig) calc.Constants {
	return calc.Constants{
		ShieldRegenFactor:      c.ShieldRegenFactor,
		FrictionCap:            c.FrictionCap,
		SuspensionStiffnessCap: c.SuspensionStiffnessCap,
		TorqueScaleCap:         c.TorqueScaleCap,
	}
}

func (e *engine) Close() {
	if e.scripts != nil {
		e.scripts.Close()
	}
}

func newImporter(cfg config.Config, logger *zap.Logger) *importer.Importer {
	return importer.New(importer.Options{Workers: cfg.Run.Workers, Pretty: cfg.Output.Pretty}, logger)
}

func printSummary(w io.Writer, what string, sum importer.Summary) {
	fmt.Fprintf(w, "%s: %d written, %d skipped, %d failed\n", what, sum.Written, sum.Skipped, len(sum.Failures))
	for _, f := range sum.Failures {
		fmt.Fprintf(w, "  %s: %v\n", f.Key, f.Err)
	}
}
