package index

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/shipyard/internal/record"
)

type scanned struct {
	rel   string
	kind  record.Kind
	class string
	ref   string
	err   error
}

// Build scans every *.xml file under dataDir, reading only each file's root
// element, and returns the resulting Index. Files that fail to parse are
// logged and skipped; duplicate class names or references keep the first
// file in lexical path order.
//
// Precondition: dataDir must be a readable directory; workers >= 1.
// Postcondition: Returns an Index whose record paths are relative to dataDir.
func Build(ctx context.Context, dataDir string, workers int, logger *zap.Logger) (*Index, error) {
	var paths []string
	err := filepath.WalkDir(dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".xml") {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("index: Build: walking %s: %w", dataDir, err)
	}

	if workers < 1 {
		workers = 1
	}
	results := make([]scanned, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = scanFile(dataDir, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("index: Build: %w", err)
	}

	ix := newIndex(dataDir)
	skipped := 0
	for _, s := range results {
		if s.err != nil {
			skipped++
			logger.Warn("skipping unreadable record", zap.String("path", s.rel), zap.Error(s.err))
			continue
		}
		dupClass, dupRef := ix.add(s.kind, s.class, s.ref, s.rel)
		if dupClass {
			logger.Debug("duplicate class name; keeping first",
				zap.String("class", s.class),
				zap.String("path", s.rel),
			)
		}
		if dupRef {
			logger.Warn("duplicate reference id; keeping first",
				zap.String("ref", s.ref),
				zap.String("path", s.rel),
			)
		}
	}
	logger.Info("index built",
		zap.Int("files", len(paths)),
		zap.Int("classes", ix.Len()),
		zap.Int("skipped", skipped),
	)
	return ix, nil
}

func scanFile(dataDir, path string) scanned {
	rel, err := filepath.Rel(dataDir, path)
	if err != nil {
		rel = path
	}
	s := scanned{rel: filepath.ToSlash(rel)}
	f, err := os.Open(path)
	if err != nil {
		s.err = err
		return s
	}
	defer f.Close()
	root, err := record.ParseRoot(f)
	if err != nil {
		s.err = err
		return s
	}
	s.kind, s.class, s.ref = record.Identify(root)
	if s.class == "" {
		s.class = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s
}
