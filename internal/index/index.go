// Package index holds the run-wide record index: the five mappings that let
// loaders address any record by reference id or class name.
//
// An Index is built once (by Build or Load) and is read-only afterwards, so
// it is safe for concurrent readers.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cory-johannsen/shipyard/internal/record"
)

// Index file names inside the index directory.
const (
	ClassToPathFile = "class_to_path.json"
	ClassToTypeFile = "class_to_type.json"
	ClassToRefFile  = "class_to_ref.json"
	RefToClassFile  = "ref_to_class.json"
	RefToPathFile   = "ref_to_path.json"
)

// Files lists every index file that must exist before the engine runs.
var Files = []string{ClassToPathFile, ClassToTypeFile, ClassToRefFile, RefToClassFile, RefToPathFile}

// MissingIndexFileError reports an absent index file. It is fatal for the run.
type MissingIndexFileError struct {
	Path string
}

func (e *MissingIndexFileError) Error() string {
	return fmt.Sprintf("index: required index file %s is missing; run `shipyard index` first", e.Path)
}

// Index maps class names and reference ids to files and declared kinds.
//
// Invariant: every key is stored lowercased; class names keep their
// original spelling in names.
type Index struct {
	dataDir     string
	classToPath map[string]string
	classToType map[string]record.Kind
	classToRef  map[string]string
	refToClass  map[string]string
	refToPath   map[string]string
	names       map[string]string
}

func newIndex(dataDir string) *Index {
	return &Index{
		dataDir:     dataDir,
		classToPath: make(map[string]string),
		classToType: make(map[string]record.Kind),
		classToRef:  make(map[string]string),
		refToClass:  make(map[string]string),
		refToPath:   make(map[string]string),
		names:       make(map[string]string),
	}
}

func classKey(class string) string { return strings.ToLower(strings.TrimSpace(class)) }

// DataDir returns the directory record paths are relative to.
func (ix *Index) DataDir() string { return ix.dataDir }

// Len returns the number of indexed classes.
func (ix *Index) Len() int { return len(ix.classToPath) }

// Entry is the index's view of one record.
type Entry struct {
	Class string
	Kind  record.Kind
	Ref   string
	Path  string
}

// Lookup finds the record for (kind, class). A kind-qualified entry wins;
// otherwise the plain class entry is returned even when its kind differs,
// leaving the kind check to the loader.
//
// Postcondition: ok is false iff no record is indexed under class.
func (ix *Index) Lookup(kind record.Kind, class string) (Entry, bool) {
	if e, ok := ix.entry(qualifiedKey(kind, class)); ok {
		return e, true
	}
	return ix.entry(classKey(class))
}

func (ix *Index) entry(key string) (Entry, bool) {
	p, ok := ix.classToPath[key]
	if !ok {
		return Entry{}, false
	}
	return Entry{
		Class: ix.names[key],
		Kind:  ix.classToType[key],
		Ref:   ix.classToRef[key],
		Path:  ix.abs(p),
	}, true
}

// PathForClass returns the absolute file path of class.
//
// Postcondition: ok is false iff class is not indexed.
func (ix *Index) PathForClass(class string) (string, bool) {
	e, ok := ix.entry(classKey(class))
	return e.Path, ok
}

// KindForClass returns the declared kind of class.
func (ix *Index) KindForClass(class string) (record.Kind, bool) {
	k, ok := ix.classToType[classKey(class)]
	return k, ok
}

// RefForClass returns the reference id of class.
func (ix *Index) RefForClass(class string) (string, bool) {
	r, ok := ix.classToRef[classKey(class)]
	return r, ok
}

// ClassForRef returns the class name a reference id points to.
func (ix *Index) ClassForRef(ref string) (string, bool) {
	c, ok := ix.refToClass[record.NormalizeRef(ref)]
	return c, ok
}

// PathForRef returns the absolute file path a reference id points to.
func (ix *Index) PathForRef(ref string) (string, bool) {
	p, ok := ix.refToPath[record.NormalizeRef(ref)]
	if !ok {
		return "", false
	}
	return ix.abs(p), true
}

// Classes returns the original-case class names declared with kind, sorted.
// An optional filter further restricts the result.
//
// Postcondition: result is sorted and contains no duplicates.
func (ix *Index) Classes(kind record.Kind, filter func(class, path string) bool) []string {
	seen := make(map[string]bool)
	var out []string
	for key, k := range ix.classToType {
		if k != kind {
			continue
		}
		name := ix.names[key]
		if seen[name] {
			continue
		}
		if filter != nil && !filter(name, ix.classToPath[key]) {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (ix *Index) abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(ix.dataDir, filepath.FromSlash(rel))
}

// add registers one record. The first record seen for a class or reference
// wins; later duplicates are reported to the caller. When two records of
// different kinds share a class name, both are additionally stored under a
// kind-qualified key so Lookup can still tell them apart.
func (ix *Index) add(kind record.Kind, class, ref, rel string) (dupClass, dupRef bool) {
	key := classKey(class)
	if key != "" {
		if prevKind, exists := ix.classToType[key]; exists {
			if prevKind != kind {
				ix.put(qualifiedKey(prevKind, class), prevKind, ix.names[key], ix.classToRef[key], ix.classToPath[key])
				ix.put(qualifiedKey(kind, class), kind, class, ref, rel)
			} else {
				dupClass = true
			}
		} else {
			ix.put(key, kind, class, ref, rel)
		}
	}
	if ref != "" {
		if _, exists := ix.refToPath[ref]; exists {
			dupRef = true
		} else {
			ix.refToPath[ref] = rel
			ix.refToClass[ref] = class
		}
	}
	return dupClass, dupRef
}

func (ix *Index) put(key string, kind record.Kind, class, ref, rel string) {
	if _, exists := ix.classToPath[key]; exists {
		return
	}
	ix.classToPath[key] = rel
	ix.classToType[key] = kind
	ix.names[key] = class
	if ref != "" {
		ix.classToRef[key] = ref
	}
}

func qualifiedKey(kind record.Kind, class string) string {
	return classKey(string(kind) + "." + class)
}

// Load reads the five index files from indexDir. Record paths are resolved
// relative to dataDir.
//
// Precondition: indexDir must contain every file in Files.
// Postcondition: Returns a populated Index, or a *MissingIndexFileError for the
// first absent file, or a parse error.
func Load(indexDir, dataDir string) (*Index, error) {
	for _, name := range Files {
		path := filepath.Join(indexDir, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, &MissingIndexFileError{Path: path}
			}
			return nil, fmt.Errorf("index: Load: stat %s: %w", path, err)
		}
	}

	var (
		classToPath map[string]string
		classToType map[string]string
		classToRef  map[string]string
		refToClass  map[string]string
		refToPath   map[string]string
	)
	targets := []struct {
		name string
		dst  *map[string]string
	}{
		{ClassToPathFile, &classToPath},
		{ClassToTypeFile, &classToType},
		{ClassToRefFile, &classToRef},
		{RefToClassFile, &refToClass},
		{RefToPathFile, &refToPath},
	}
	for _, tgt := range targets {
		if err := readJSON(filepath.Join(indexDir, tgt.name), tgt.dst); err != nil {
			return nil, err
		}
	}

	ix := newIndex(dataDir)
	for class, p := range classToPath {
		key := classKey(class)
		ix.classToPath[key] = p
		ix.names[key] = class
		if k, ok := classToType[class]; ok {
			if bare, found := strings.CutPrefix(class, k+"."); found {
				ix.names[key] = bare
			}
		}
	}
	for class, k := range classToType {
		ix.classToType[classKey(class)] = record.Kind(k)
	}
	for class, r := range classToRef {
		if r = record.NormalizeRef(r); r != "" {
			ix.classToRef[classKey(class)] = r
		}
	}
	for r, class := range refToClass {
		if r = record.NormalizeRef(r); r != "" {
			ix.refToClass[r] = class
		}
	}
	for r, p := range refToPath {
		if r = record.NormalizeRef(r); r != "" {
			ix.refToPath[r] = p
		}
	}
	return ix, nil
}

// Save writes the five index files into dir, creating it if needed.
//
// Postcondition: Load(dir, ix.DataDir()) yields an equivalent Index.
func (ix *Index) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("index: Save: creating %s: %w", dir, err)
	}
	classToPath := make(map[string]string, len(ix.classToPath))
	classToType := make(map[string]string, len(ix.classToType))
	classToRef := make(map[string]string, len(ix.classToRef))
	for key, p := range ix.classToPath {
		name := ix.names[key]
		if key != classKey(name) {
			// Kind-qualified entry.
			name = string(ix.classToType[key]) + "." + name
		}
		classToPath[name] = p
		classToType[name] = string(ix.classToType[key])
		if r, ok := ix.classToRef[key]; ok {
			classToRef[name] = r
		}
	}
	outputs := []struct {
		name string
		data map[string]string
	}{
		{ClassToPathFile, classToPath},
		{ClassToTypeFile, classToType},
		{ClassToRefFile, classToRef},
		{RefToClassFile, ix.refToClass},
		{RefToPathFile, ix.refToPath},
	}
	for _, o := range outputs {
		data, err := json.MarshalIndent(o.data, "", "  ")
		if err != nil {
			return fmt.Errorf("index: Save: encoding %s: %w", o.name, err)
		}
		path := filepath.Join(dir, o.name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("index: Save: writing %s: %w", path, err)
		}
	}
	return nil
}

func readJSON(path string, dst *map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("index: reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("index: parsing %s: %w", path, err)
	}
	if *dst == nil {
		*dst = make(map[string]string)
	}
	return nil
}
