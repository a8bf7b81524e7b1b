// Package assembly merges a vehicle's static part hierarchy with its loadout
// into one tree of parts, ports and installed items.
package assembly

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/shipyard/internal/entity"
	"github.com/cory-johannsen/shipyard/internal/loader"
)

// DefaultMaxDepth bounds the combined part and item recursion.
const DefaultMaxDepth = 50

// ItemResolver loads an item by reference id, falling back to class name.
type ItemResolver interface {
	Resolve(ref, class string) (*entity.Item, error)
}

// Assembler builds part trees. It holds no per-call state and is safe for
// concurrent use.
type Assembler struct {
	items    ItemResolver
	maxDepth int
	logger   *zap.Logger
}

// New creates an Assembler. A maxDepth of zero or less selects
// DefaultMaxDepth.
//
// Precondition: items and logger must be non-nil.
func New(items ItemResolver, maxDepth int, logger *zap.Logger) *Assembler {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Assembler{items: items, maxDepth: maxDepth, logger: logger}
}

// MaxDepth returns the recursion bound.
func (a *Assembler) MaxDepth() int { return a.maxDepth }

// Assemble builds the tree for parts with the root loadout entries.
//
// Postcondition: every non-empty root entry is reachable, either on the
// static port it names or on a virtual part appended after the static ones.
// No installed item appears twice along one path. Missing items leave
// InstalledItem nil. An unreadable source file aborts the call with an error
// wrapping loader.ErrUnreadableSource.
func (a *Assembler) Assemble(parts []entity.PartDef, loadout []entity.LoadoutEntry) ([]*Part, error) {
	s := &session{
		Assembler: a,
		cache:     make(map[string]*entity.Item),
		visiting:  make(map[string]bool),
		matched:   make(map[string]bool),
		loadout:   loadout,
	}
	var out []*Part
	for _, def := range parts {
		if p := s.part(def, 0); p != nil {
			out = append(out, p)
		}
	}
	for _, e := range loadout {
		if e.Empty() || s.matched[strings.ToLower(e.PortName)] {
			continue
		}
		port := &Port{Name: e.PortName, Def: entity.PortDef{Name: e.PortName}, Virtual: true}
		port.InstalledItem = s.install(e, 1)
		out = append(out, &Part{Name: e.PortName, Port: port})
	}
	if s.err != nil {
		return nil, fmt.Errorf("assembly: Assembler.Assemble: %w", s.err)
	}
	return out, nil
}

// session is the state of one Assemble call.
type session struct {
	*Assembler
	cache    map[string]*entity.Item
	visiting map[string]bool
	matched  map[string]bool
	loadout  []entity.LoadoutEntry
	err      error
}

func (s *session) part(def entity.PartDef, depth int) *Part {
	if depth > s.maxDepth {
		s.logger.Debug("part depth limit reached", zap.String("part", def.Name), zap.Int("depth", depth))
		return nil
	}
	p := &Part{
		Name:                       def.Name,
		Mass:                       def.Mass,
		MaxDamage:                  def.MaxDamage,
		DestructionDamageThreshold: def.DestructionDamageThreshold,
		DetachDamageThreshold:      def.DetachDamageThreshold,
	}
	if p.Mass == nil {
		zero := 0.0
		p.Mass = &zero
	}
	if def.Port != nil {
		p.Port = newPort(*def.Port)
		if e, ok := entity.FindEntry(s.loadout, p.Port.Name); ok {
			s.matched[strings.ToLower(p.Port.Name)] = true
			p.Port.InstalledItem = s.install(e, depth+1)
		}
	}
	for _, child := range def.Parts {
		if c := s.part(child, depth+1); c != nil {
			p.Parts = append(p.Parts, c)
		}
	}
	return p
}

// install resolves the item named by e and recurses into its ports.
func (s *session) install(e entity.LoadoutEntry, depth int) *InstalledItem {
	if e.Empty() {
		return nil
	}
	if depth > s.maxDepth {
		s.logger.Debug("item depth limit reached",
			zap.String("port", e.PortName),
			zap.String("class", e.ClassName),
			zap.Int("depth", depth),
		)
		return nil
	}
	item := s.item(e)
	if item == nil {
		return nil
	}
	id := item.Identity()
	if s.visiting[id] {
		s.logger.Debug("item cycle detected",
			zap.String("port", e.PortName),
			zap.String("item", id),
		)
		return &InstalledItem{Item: item, Terminal: true}
	}
	s.visiting[id] = true
	defer delete(s.visiting, id)

	inst := &InstalledItem{Item: item}
	merged := entity.MergeLoadouts(e.Entries, item.DefaultLoadout)
	used := make(map[string]bool)
	for _, def := range item.Ports {
		port := newPort(def)
		if child, ok := entity.FindEntry(merged, def.Name); ok {
			used[strings.ToLower(def.Name)] = true
			port.InstalledItem = s.install(child, depth+1)
		}
		inst.Ports = append(inst.Ports, port)
	}
	for _, child := range merged {
		if child.Empty() || used[strings.ToLower(child.PortName)] {
			continue
		}
		used[strings.ToLower(child.PortName)] = true
		port := &Port{Name: child.PortName, Def: entity.PortDef{Name: child.PortName}, Virtual: true}
		port.InstalledItem = s.install(child, depth+1)
		inst.Ports = append(inst.Ports, port)
	}
	return inst
}

// item loads the entry's item once per session.
func (s *session) item(e entity.LoadoutEntry) *entity.Item {
	key := strings.ToLower(e.ClassReference + "|" + e.ClassName)
	if it, ok := s.cache[key]; ok {
		return it
	}
	it, err := s.items.Resolve(e.ClassReference, e.ClassName)
	if err != nil {
		switch {
		case errors.Is(err, loader.ErrUnreadableSource):
			if s.err == nil {
				s.err = err
			}
		case !errors.Is(err, loader.ErrNotFound):
			s.logger.Warn("loading installed item",
				zap.String("port", e.PortName),
				zap.String("class", e.ClassName),
				zap.String("ref", e.ClassReference),
				zap.Error(err),
			)
		}
		it = nil
	}
	s.cache[key] = it
	return it
}
