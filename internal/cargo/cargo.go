// Package cargo derives a vehicle's cargo capacity from whichever record
// shape expresses it, trying each source in turn.
package cargo

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/shipyard/internal/assembly"
	"github.com/cory-johannsen/shipyard/internal/resolve"
)

// SCUEdge is the edge length in metres of one standard cargo unit.
const SCUEdge = 1.25

// Sources recorded on each Grid.
const (
	SourceGrid      = "grid"
	SourceContainer = "container"
	SourceName      = "name"
	SourceFallback  = "fallback"
)

//go:embed fallback.yaml
var fallbackYAML []byte

// Input is the cargo-bearing part of a vehicle.
type Input struct {
	VehicleClass string
	// Ports are the vehicle's cargo ports, in tree order.
	Ports []*assembly.Port
}

// Grid is one contribution to the cargo capacity.
type Grid struct {
	Port   string  `json:"Port,omitempty"`
	Class  string  `json:"Class,omitempty"`
	SCU    float64 `json:"SCU"`
	Source string  `json:"Source"`
}

// Capacity accumulates grids. Strategies only ever add to it.
type Capacity struct {
	Grids []Grid  `json:"Grids,omitempty"`
	Total float64 `json:"TotalSCU"`

	// pending are the occupied cargo ports of the input being resolved.
	pending   []*assembly.Port
	accounted map[*assembly.Port]bool
}

func newCapacity(in Input) *Capacity {
	return &Capacity{pending: occupied(in), accounted: make(map[*assembly.Port]bool)}
}

// add records a grid for port unless the port is already accounted for.
func (c *Capacity) add(port *assembly.Port, g Grid) {
	if port != nil {
		if c.accounted[port] {
			return
		}
		c.accounted[port] = true
	}
	c.Grids = append(c.Grids, g)
	c.Total += g.SCU
}

// Accounted reports whether port has a recorded grid.
func (c *Capacity) Accounted(port *assembly.Port) bool { return c.accounted[port] }

// Table maps lowercased vehicle class names to a fallback capacity in SCU.
type Table map[string]float64

// LoadTable parses a fallback table document.
func LoadTable(r io.Reader) (Table, error) {
	var doc struct {
		Vehicles map[string]float64 `yaml:"vehicles"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("cargo: LoadTable: %w", err)
	}
	t := make(Table, len(doc.Vehicles))
	for class, scu := range doc.Vehicles {
		t[strings.ToLower(class)] = scu
	}
	return t, nil
}

// DefaultTable parses the embedded fallback table.
func DefaultTable() (Table, error) {
	return LoadTable(bytes.NewReader(fallbackYAML))
}

// Resolver runs the cargo strategies.
type Resolver struct {
	chain resolve.Chain[Input, *Capacity]
}

// NewResolver returns a Resolver whose last strategy consults table.
func NewResolver(table Table) *Resolver {
	return &Resolver{chain: resolve.Chain[Input, *Capacity]{
		Strategies: []resolve.Strategy[Input, *Capacity]{
			resolve.StrategyFunc[Input, *Capacity]{Label: SourceGrid, Fn: fromGridDimensions},
			resolve.StrategyFunc[Input, *Capacity]{Label: SourceContainer, Fn: fromResourceContainer},
			resolve.StrategyFunc[Input, *Capacity]{Label: SourceName, Fn: fromClassName},
			resolve.StrategyFunc[Input, *Capacity]{Label: SourceFallback, Fn: table.contribute},
		},
		Satisfied: satisfied,
	}}
}

// Resolve returns the capacity of in and the strategies that ran.
//
// Postcondition: Total is the sum of Grids.
func (r *Resolver) Resolve(in Input) (*Capacity, []string) {
	c := newCapacity(in)
	ran := r.chain.Run(in, c)
	c.Total = round(c.Total)
	return c, ran
}

// satisfied holds once every occupied cargo port is accounted for and the
// total is positive.
func satisfied(c *Capacity) bool {
	if c.Total <= 0 {
		return false
	}
	for _, p := range c.pending {
		if !c.accounted[p] {
			return false
		}
	}
	return true
}

func occupied(in Input) []*assembly.Port {
	var out []*assembly.Port
	for _, p := range in.Ports {
		if p.InstalledItem != nil && p.InstalledItem.Item != nil {
			out = append(out, p)
		}
	}
	return out
}

func fromGridDimensions(_ Input, c *Capacity) {
	for _, p := range c.pending {
		dim := p.InstalledItem.Component("SCItemCargoGridParams").Child("dimensions")
		if !dim.Exists() {
			continue
		}
		scu := units(dim.Float("x", 0)) * units(dim.Float("y", 0)) * units(dim.Float("z", 0))
		if scu > 0 {
			c.add(p, Grid{Port: p.Name, Class: p.InstalledItem.ClassName, SCU: scu, Source: SourceGrid})
		}
	}
}

func fromResourceContainer(_ Input, c *Capacity) {
	for _, p := range c.pending {
		scu := p.InstalledItem.Component("ResourceContainer").Child("capacity").Find("SStandardCargoUnit").Float("standardCargoUnits", 0)
		if scu > 0 {
			c.add(p, Grid{Port: p.Name, Class: p.InstalledItem.ClassName, SCU: scu, Source: SourceContainer})
		}
	}
}

var scuPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)_?SCU`)

func fromClassName(_ Input, c *Capacity) {
	for _, p := range c.pending {
		m := scuPattern.FindStringSubmatch(p.InstalledItem.ClassName)
		if m == nil {
			continue
		}
		if scu, err := strconv.ParseFloat(m[1], 64); err == nil && scu > 0 {
			c.add(p, Grid{Port: p.Name, Class: p.InstalledItem.ClassName, SCU: scu, Source: SourceName})
		}
	}
}

// contribute fills in a vehicle-level capacity when no grid was found.
func (t Table) contribute(in Input, c *Capacity) {
	if c.Total > 0 {
		return
	}
	if scu, ok := t[strings.ToLower(in.VehicleClass)]; ok && scu > 0 {
		c.add(nil, Grid{Class: in.VehicleClass, SCU: scu, Source: SourceFallback})
	}
}

// units is the number of whole SCU that fit along an edge of length m.
func units(m float64) float64 {
	return math.Floor(m/SCUEdge + 1e-9)
}

func round(v float64) float64 {
	return math.Round(v*1000) / 1000
}
