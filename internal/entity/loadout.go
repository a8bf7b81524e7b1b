package entity

import (
	"strings"

	"github.com/cory-johannsen/shipyard/internal/record"
)

// LoadoutEntry names the item occupying one port, plus that item's own
// sub-loadout.
//
// Invariant: an entry is never mutated after construction; MergeLoadouts
// returns new slices.
type LoadoutEntry struct {
	PortName       string         `json:"PortName"`
	ClassName      string         `json:"ClassName,omitempty"`
	ClassReference string         `json:"ClassReference,omitempty"`
	Entries        []LoadoutEntry `json:"Entries,omitempty"`
}

// Empty reports whether the entry names no item. An empty entry still
// overrides a default for its port, leaving the port unoccupied.
func (e LoadoutEntry) Empty() bool {
	return e.ClassName == "" && e.ClassReference == ""
}

// ParseLoadout reads the manual loadout declared under parent's <loadout>
// element.
//
// Postcondition: returns nil when parent declares no loadout.
func ParseLoadout(parent record.Accessor) []LoadoutEntry {
	entries := parent.Child("loadout/SItemPortLoadoutManualParams/entries")
	var out []LoadoutEntry
	for _, e := range entries.Children("SItemPortLoadoutEntryParams") {
		out = append(out, LoadoutEntry{
			PortName:       strings.TrimSpace(e.Attr("itemPortName")),
			ClassName:      strings.TrimSpace(e.Attr("entityClassName")),
			ClassReference: record.NormalizeRef(e.Attr("entityClassReference")),
			Entries:        ParseLoadout(e),
		})
	}
	return out
}

// FindEntry returns the entry for port, matched case-insensitively.
func FindEntry(entries []LoadoutEntry, port string) (LoadoutEntry, bool) {
	for _, e := range entries {
		if strings.EqualFold(e.PortName, port) {
			return e, true
		}
	}
	return LoadoutEntry{}, false
}

// MergeLoadouts combines an outer (parent) loadout with an item's own
// default loadout. For a port named in both, the outer entry wins;
// non-conflicting entries from both are kept. Defaults keep their order,
// with overridden entries replaced in place, and outer-only entries follow.
//
// Postcondition: every port name appears at most once per case-folded name
// contributed by either input, and neither input slice is modified.
func MergeLoadouts(outer, defaults []LoadoutEntry) []LoadoutEntry {
	if len(outer) == 0 {
		return defaults
	}
	if len(defaults) == 0 {
		return outer
	}
	used := make(map[string]bool, len(outer))
	merged := make([]LoadoutEntry, 0, len(outer)+len(defaults))
	for _, d := range defaults {
		if o, ok := FindEntry(outer, d.PortName); ok {
			merged = append(merged, o)
			used[strings.ToLower(o.PortName)] = true
			continue
		}
		merged = append(merged, d)
	}
	for _, o := range outer {
		key := strings.ToLower(o.PortName)
		if used[key] {
			continue
		}
		used[key] = true
		merged = append(merged, o)
	}
	return merged
}
