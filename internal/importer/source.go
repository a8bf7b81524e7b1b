package importer

import (
	"context"
	"strings"

	"github.com/cory-johannsen/shipyard/internal/index"
	"github.com/cory-johannsen/shipyard/internal/record"
)

// Source yields the keys (class names or reference ids) of the records a
// run should resolve.
//
// Postcondition: returns a possibly empty list of keys, or a non-nil error.
type Source interface {
	Keys(ctx context.Context) ([]string, error)
}

// StaticSource is a fixed list of keys, as given on the command line.
type StaticSource []string

// Keys implements Source.
func (s StaticSource) Keys(context.Context) ([]string, error) { return s, nil }

// VehiclePathHints are the data directories vehicle entities live in.
var VehiclePathHints = []string{"spaceships", "groundvehicles"}

// IndexSource lists every indexed class of Kind. When PathHints is set,
// only classes whose record path contains one of the hints as a directory
// name are listed; if no class matches, the hints are ignored.
type IndexSource struct {
	Index     *index.Index
	Kind      record.Kind
	PathHints []string
}

// VehicleSource lists vehicle entity candidates. Candidates that turn out
// not to be vehicles are skipped by the importer.
func VehicleSource(ix *index.Index) IndexSource {
	return IndexSource{Index: ix, Kind: record.KindEntity, PathHints: VehiclePathHints}
}

// BlueprintSource lists every crafting blueprint.
func BlueprintSource(ix *index.Index) IndexSource {
	return IndexSource{Index: ix, Kind: record.KindBlueprint}
}

// Keys implements Source.
func (s IndexSource) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.PathHints) > 0 {
		hinted := s.Index.Classes(s.Kind, func(_, path string) bool {
			return hasPathSegment(path, s.PathHints)
		})
		if len(hinted) > 0 {
			return hinted, nil
		}
	}
	return s.Index.Classes(s.Kind, nil), nil
}

func hasPathSegment(path string, segments []string) bool {
	for _, part := range strings.FieldsFunc(strings.ToLower(path), func(r rune) bool { return r == '/' || r == '\\' }) {
		for _, seg := range segments {
			if part == seg {
				return true
			}
		}
	}
	return false
}
