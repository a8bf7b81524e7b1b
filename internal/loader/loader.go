// Package loader resolves records by reference id or class name through the
// run-wide index, parses them on demand, and validates their declared kind.
//
// Loaders do not cache: each call re-parses the backing file. Callers that
// look up the same record repeatedly keep their own local cache.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/cory-johannsen/shipyard/internal/index"
	"github.com/cory-johannsen/shipyard/internal/record"
)

// ErrNotFound reports that no index entry exists for a reference or class.
// Callers treat it as "absent", never as a failure.
var ErrNotFound = errors.New("loader: record not found")

// ErrTypeMismatch is wrapped by every *TypeMismatchError.
var ErrTypeMismatch = errors.New("loader: record kind mismatch")

// TypeMismatchError reports a loaded record whose declared kind differs from
// the loader's expected kind, which points at index corruption.
type TypeMismatchError struct {
	Path string
	Want record.Kind
	Got  record.Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("loader: %s declares kind %q, expected %q", e.Path, e.Got, e.Want)
}

// Unwrap makes errors.Is(err, ErrTypeMismatch) hold.
func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }

// ErrUnreadableSource matches every *UnreadableSourceError.
var ErrUnreadableSource = errors.New("loader: unreadable source file")

// UnreadableSourceError reports an indexed file that can no longer be opened
// or read. The index and the corpus disagree, so the whole run is suspect:
// callers abort rather than treat the record as absent.
type UnreadableSourceError struct {
	Path string
	Err  error
}

func (e *UnreadableSourceError) Error() string {
	return fmt.Sprintf("loader: reading %s: %v", e.Path, e.Err)
}

func (e *UnreadableSourceError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUnreadableSource) hold.
func (e *UnreadableSourceError) Is(target error) bool { return target == ErrUnreadableSource }

// IsAbsent reports whether err should be treated as an absent optional
// record: NotFound, or a TypeMismatch on an optional lookup.
func IsAbsent(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrTypeMismatch)
}

// Decoder maps a validated record onto a structured value.
type Decoder[T any] func(*record.Record) (T, error)

// Loader loads records of one kind.
//
// Loader is safe for concurrent use; it holds only the read-only index.
type Loader[T any] struct {
	ix     *index.Index
	kind   record.Kind
	decode Decoder[T]
}

// New constructs a Loader for kind.
//
// Precondition: ix and decode must be non-nil.
func New[T any](ix *index.Index, kind record.Kind, decode Decoder[T]) *Loader[T] {
	return &Loader[T]{ix: ix, kind: kind, decode: decode}
}

// Kind returns the kind this loader expects.
func (l *Loader[T]) Kind() record.Kind { return l.kind }

// ByReference loads the record with reference id ref.
//
// Postcondition: returns ErrNotFound when ref is blank or not indexed, a
// *TypeMismatchError when the record is of another kind, or the decoded value.
func (l *Loader[T]) ByReference(ref string) (T, error) {
	var zero T
	ref = record.NormalizeRef(ref)
	if ref == "" {
		return zero, ErrNotFound
	}
	path, ok := l.ix.PathForRef(ref)
	if !ok {
		return zero, fmt.Errorf("%w: %s reference %s", ErrNotFound, l.kind, ref)
	}
	return l.load(path)
}

// ByClassName loads the record of this loader's kind named class.
//
// Postcondition: as ByReference.
func (l *Loader[T]) ByClassName(class string) (T, error) {
	var zero T
	class = strings.TrimSpace(class)
	if class == "" {
		return zero, ErrNotFound
	}
	entry, ok := l.ix.Lookup(l.kind, class)
	if !ok {
		return zero, fmt.Errorf("%w: %s class %s", ErrNotFound, l.kind, class)
	}
	return l.load(entry.Path)
}

// Resolve loads by reference first and falls back to the class name when
// the reference is blank or unknown. A TypeMismatch on the reference is
// returned as is, without falling back.
func (l *Loader[T]) Resolve(ref, class string) (T, error) {
	v, err := l.ByReference(ref)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return v, err
	}
	return l.ByClassName(class)
}

// ByReferenceOrClass treats key as a reference id when it parses as one,
// otherwise as a class name.
func (l *Loader[T]) ByReferenceOrClass(key string) (T, error) {
	if record.IsReference(key) {
		return l.Resolve(key, "")
	}
	return l.ByClassName(key)
}

// LoadRecord parses and validates the record at path without decoding it.
//
// Postcondition: open and read failures are *UnreadableSourceError; a
// malformed document is a plain error scoped to this record.
func (l *Loader[T]) LoadRecord(path string) (*record.Record, error) {
	root, err := record.ParseFile(path)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, &UnreadableSourceError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("loader: %s: %w", l.kind, err)
	}
	rec := record.New(root, path)
	if rec.Kind != l.kind {
		return nil, &TypeMismatchError{Path: path, Want: l.kind, Got: rec.Kind}
	}
	return rec, nil
}

func (l *Loader[T]) load(path string) (T, error) {
	var zero T
	rec, err := l.LoadRecord(path)
	if err != nil {
		return zero, err
	}
	v, err := l.decode(rec)
	if err != nil {
		return zero, fmt.Errorf("loader: decoding %s %s: %w", l.kind, rec.ClassName, err)
	}
	return v, nil
}
