// Package importer runs batch extraction: it resolves many vehicles or
// blueprints concurrently and writes one JSON report per record.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/shipyard/internal/entity"
	"github.com/cory-johannsen/shipyard/internal/loader"
	"github.com/cory-johannsen/shipyard/internal/vehicle"
)

// Output sub-directories.
const (
	VehiclesDir   = "vehicles"
	BlueprintsDir = "blueprints"
)

// VehicleBuilder resolves one vehicle report.
type VehicleBuilder interface {
	Build(key string) (*vehicle.Report, error)
}

// BlueprintBuilder resolves one blueprint report.
type BlueprintBuilder interface {
	Build(key string) (*BlueprintReport, error)
}

// Options controls a batch run.
type Options struct {
	// Workers bounds the number of records resolved at once.
	Workers int
	// Pretty indents the written JSON.
	Pretty bool
}

// Failure records one key that could not be resolved.
type Failure struct {
	Key string
	Err error
}

// Summary counts the outcome of a batch run.
type Summary struct {
	Written  int
	Skipped  int
	Failures []Failure
}

// Importer orchestrates batch resolution from a Source to an output directory.
type Importer struct {
	opts   Options
	logger *zap.Logger
}

// New constructs an Importer.
//
// Precondition: logger must be non-nil.
// Postcondition: returns a non-nil Importer with at least one worker.
func New(opts Options, logger *zap.Logger) *Importer {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Importer{opts: opts, logger: logger}
}

// Vehicles builds every vehicle named by src and writes
// <outputDir>/vehicles/<id>.json for each. A key that names an entity
// without vehicle parameters is skipped. An unreadable source file aborts
// the batch; any other failure is recorded in the summary and the batch
// continues.
//
// Postcondition: returns a non-nil error only when src fails, the output
// directory cannot be created, a source file is unreadable, or ctx is
// cancelled.
func (imp *Importer) Vehicles(ctx context.Context, src Source, b VehicleBuilder, outputDir string) (Summary, error) {
	return run(ctx, imp, src, filepath.Join(outputDir, VehiclesDir), "vehicle", func(key string) (string, any, error) {
		r, err := b.Build(key)
		if err != nil {
			return "", nil, err
		}
		return r.Vehicle.ClassName, r, nil
	})
}

// Blueprints builds every blueprint named by src and writes
// <outputDir>/blueprints/<id>.json for each.
//
// Postcondition: as for Vehicles.
func (imp *Importer) Blueprints(ctx context.Context, src Source, b BlueprintBuilder, outputDir string) (Summary, error) {
	return run(ctx, imp, src, filepath.Join(outputDir, BlueprintsDir), "blueprint", func(key string) (string, any, error) {
		r, err := b.Build(key)
		if err != nil {
			return "", nil, err
		}
		return r.Blueprint, r, nil
	})
}

func run(ctx context.Context, imp *Importer, src Source, dir, what string, build func(key string) (string, any, error)) (Summary, error) {
	overall := time.Now()
	keys, err := src.Keys(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("importer: listing %ss: %w", what, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Summary{}, fmt.Errorf("importer: creating output directory %s: %w", dir, err)
	}
	imp.logger.Info("resolving", zap.String("kind", what), zap.Int("count", len(keys)), zap.Int("workers", imp.opts.Workers))

	var (
		mu  sync.Mutex
		sum Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(imp.opts.Workers)
	for _, key := range keys {
		key := key
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t0 := time.Now()
			outcome, err := imp.one(dir, key, build)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, loader.ErrUnreadableSource):
				imp.logger.Error("aborting "+what, zap.String("key", key), zap.Error(err))
				return fmt.Errorf("%s %s: %w", what, key, err)
			case err != nil:
				imp.logger.Error("resolving "+what, zap.String("key", key), zap.Error(err))
				sum.Failures = append(sum.Failures, Failure{Key: key, Err: err})
			case outcome == "":
				sum.Skipped++
			default:
				sum.Written++
				imp.logger.Debug("wrote", zap.String("path", outcome), zap.Duration("elapsed", time.Since(t0)))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sum, fmt.Errorf("importer: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return sum, fmt.Errorf("importer: %w", err)
	}
	sort.Slice(sum.Failures, func(i, j int) bool { return sum.Failures[i].Key < sum.Failures[j].Key })

	imp.logger.Info("resolved",
		zap.String("kind", what),
		zap.Int("written", sum.Written),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", len(sum.Failures)),
		zap.Duration("elapsed", time.Since(overall).Round(time.Millisecond)),
	)
	return sum, nil
}

// one resolves and writes a single record. It returns the written path, or
// "" when the key was skipped.
func (imp *Importer) one(dir, key string, build func(string) (string, any, error)) (string, error) {
	name, report, err := build(key)
	if err != nil {
		var notVehicle *entity.ErrNotAVehicle
		if errors.As(err, &notVehicle) {
			return "", nil
		}
		return "", err
	}
	id := NameToID(name)
	if id == "" {
		return "", fmt.Errorf("no usable file name for %q", name)
	}
	data, err := imp.marshal(report)
	if err != nil {
		return "", fmt.Errorf("serialising %q: %w", name, err)
	}
	path := filepath.Join(dir, id+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing %q to %s: %w", name, path, err)
	}
	return path, nil
}

func (imp *Importer) marshal(v any) ([]byte, error) {
	if imp.opts.Pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
