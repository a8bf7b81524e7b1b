// Package testutil builds throwaway record corpora for package tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/cory-johannsen/shipyard/internal/index"
	"github.com/cory-johannsen/shipyard/internal/record"
)

// Corpus is a temporary data directory of XML records.
type Corpus struct {
	t   testing.TB
	Dir string
}

// NewCorpus creates an empty corpus rooted in a test temp dir.
//
// Postcondition: Dir exists and is removed when the test ends.
func NewCorpus(t testing.TB) *Corpus {
	t.Helper()
	return &Corpus{t: t, Dir: t.TempDir()}
}

// Write stores content at rel (slash-separated) under Dir and returns the
// absolute path.
func (c *Corpus) Write(rel, content string) string {
	c.t.Helper()
	path := filepath.Join(c.Dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		c.t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		c.t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// Record writes a record document whose root is "<kind>.<class>" and whose
// body is the given inner XML.
func (c *Corpus) Record(kind record.Kind, class, ref, body string) string {
	c.t.Helper()
	rel := fmt.Sprintf("%s/%s.xml", strings.ToLower(string(kind)), strings.ToLower(class))
	doc := fmt.Sprintf("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<%s.%s __type=%q __ref=%q __path=%q>\n%s\n</%s.%s>\n",
		kind, class, kind, ref, rel, body, kind, class)
	return c.Write(rel, doc)
}

// Index scans the corpus and returns its Index.
func (c *Corpus) Index() *index.Index {
	c.t.Helper()
	ix, err := index.Build(context.Background(), c.Dir, 2, zap.NewNop())
	if err != nil {
		c.t.Fatalf("building index: %v", err)
	}
	return ix
}

// Port describes an item port or a part's mount point.
type Port struct {
	Name    string
	MinSize int
	MaxSize int
	// Types entries are "Type" or "Type.SubType".
	Types []string
	Flags string
}

// Entry is one loadout entry.
type Entry struct {
	Port   string
	Class  string
	Ref    string
	Nested []Entry
}

// Item describes an EntityClassDefinition record.
type Item struct {
	Class   string
	Ref     string
	Type    string
	SubType string
	Size    int
	Grade   int
	Mass    float64
	Ports   []Port
	Loadout []Entry
	// Components is raw XML appended inside <Components>.
	Components string
}

// Item writes an item record and returns its path.
func (c *Corpus) Item(it Item) string {
	c.t.Helper()
	return c.Record(record.KindEntity, it.Class, it.Ref, ItemBody(it))
}

// ItemBody renders the inner XML of an item record.
func ItemBody(it Item) string {
	var b strings.Builder
	b.WriteString("<Components>\n")
	fmt.Fprintf(&b, "<SAttachableComponentParams><AttachDef Type=%q SubType=%q Size=\"%d\" Grade=\"%d\"><Localization Name=\"@item_Name%s\"/></AttachDef></SAttachableComponentParams>\n",
		it.Type, it.SubType, it.Size, it.Grade, it.Class)
	if it.Mass > 0 {
		fmt.Fprintf(&b, "<SEntityPhysicsControllerParams><PhysType><SEntityRigidPhysicsControllerParams Mass=\"%g\"/></PhysType></SEntityPhysicsControllerParams>\n", it.Mass)
	}
	if len(it.Ports) > 0 {
		b.WriteString("<SItemPortContainerComponentParams><Ports>\n")
		for _, p := range it.Ports {
			fmt.Fprintf(&b, "<SItemPortDef Name=%q MinSize=\"%d\" MaxSize=\"%d\" Flags=%q><Types>", p.Name, p.MinSize, p.MaxSize, p.Flags)
			for _, t := range p.Types {
				typ, sub, _ := strings.Cut(t, ".")
				fmt.Fprintf(&b, "<SItemPortDefTypes Type=%q SubTypes=%q/>", typ, sub)
			}
			b.WriteString("</Types></SItemPortDef>\n")
		}
		b.WriteString("</Ports></SItemPortContainerComponentParams>\n")
	}
	if len(it.Loadout) > 0 {
		b.WriteString("<SEntityComponentDefaultLoadoutParams>")
		b.WriteString(LoadoutXML(it.Loadout))
		b.WriteString("</SEntityComponentDefaultLoadoutParams>\n")
	}
	b.WriteString(it.Components)
	b.WriteString("\n</Components>")
	return b.String()
}

// LoadoutXML renders entries as a <loadout> element.
func LoadoutXML(entries []Entry) string {
	var b strings.Builder
	b.WriteString("<loadout><SItemPortLoadoutManualParams><entries>")
	for _, e := range entries {
		fmt.Fprintf(&b, "<SItemPortLoadoutEntryParams itemPortName=%q entityClassName=%q entityClassReference=%q>", e.Port, e.Class, e.Ref)
		if len(e.Nested) > 0 {
			b.WriteString(LoadoutXML(e.Nested))
		}
		b.WriteString("</SItemPortLoadoutEntryParams>")
	}
	b.WriteString("</entries></SItemPortLoadoutManualParams></loadout>")
	return b.String()
}

// Part describes a structural part of a vehicle implementation.
type Part struct {
	Name        string
	Mass        float64
	DamageMax   float64
	Destruction float64
	Detach      float64
	Port        *Port
	Children    []Part
}

// PartsXML renders parts as a <Parts> element.
func PartsXML(parts []Part) string {
	var b strings.Builder
	b.WriteString("<Parts>")
	for _, p := range parts {
		fmt.Fprintf(&b, "<Part name=%q mass=\"%g\" damageMax=\"%g\"", p.Name, p.Mass, p.DamageMax)
		if p.Destruction > 0 {
			fmt.Fprintf(&b, " destructionDamageThreshold=\"%g\"", p.Destruction)
		}
		if p.Detach > 0 {
			fmt.Fprintf(&b, " detachDamageThreshold=\"%g\"", p.Detach)
		}
		b.WriteString(">")
		if p.Port != nil {
			fmt.Fprintf(&b, "<ItemPort minSize=\"%d\" maxSize=\"%d\" flags=%q><Types>", p.Port.MinSize, p.Port.MaxSize, p.Port.Flags)
			for _, t := range p.Port.Types {
				typ, sub, _ := strings.Cut(t, ".")
				fmt.Fprintf(&b, "<Type type=%q subtypes=%q/>", typ, sub)
			}
			b.WriteString("</Types></ItemPort>")
		}
		if len(p.Children) > 0 {
			b.WriteString(PartsXML(p.Children))
		}
		b.WriteString("</Part>")
	}
	b.WriteString("</Parts>")
	return b.String()
}

// Vehicle describes a vehicle entity plus its implementation record.
type Vehicle struct {
	Class        string
	Ref          string
	ImplClass    string
	ImplRef      string
	Modification string
	// VehicleAttrs is raw attribute text appended to VehicleComponentParams.
	VehicleAttrs string
	Loadout      []Entry
	Parts        []Part
	// Components is raw XML appended inside the entity's <Components>.
	Components string
	// Implementation is raw XML appended inside the implementation record.
	Implementation string
}

// Vehicle writes the entity and implementation records.
func (c *Corpus) Vehicle(v Vehicle) {
	c.t.Helper()
	implClass := v.ImplClass
	if implClass == "" {
		implClass = v.Class
	}
	defRef := v.ImplRef
	if defRef == "" {
		defRef = implClass
	}
	comps := fmt.Sprintf("<VehicleComponentParams vehicleDefinition=%q modification=%q vehicleName=\"@vehicle_Name%s\" %s/>\n%s",
		defRef, v.Modification, v.Class, v.VehicleAttrs, v.Components)
	c.Item(Item{
		Class:      v.Class,
		Ref:        v.Ref,
		Type:       "NOITEM_Vehicle",
		SubType:    "Vehicle_Spaceship",
		Loadout:    v.Loadout,
		Components: comps,
	})
	c.Record(record.KindVehicle, implClass, v.ImplRef, PartsXML(v.Parts)+"\n"+v.Implementation)
}
