// Package schema models the device description the agent's core consumes
// as an already-parsed value (spec.md §1, §3): a tree rooted at a device
// with DataItem leaves and Component branches, plus the read-mostly index
// built on top of it for name/id resolution and response assembly.
package schema

import "github.com/mtconnect-oss/mtcagent/cmn"

// DataItem is a leaf of the device schema tree (spec.md §3). Name is
// optional but, when present, unique within a device; ID is always unique
// within a device.
type DataItem struct {
	ID          string
	Name        string
	Type        string
	SubType     string
	Category    cmn.Category
	Units       string
	NativeUnits string
}

// Component is an internal node of the device schema tree. Type is one of
// "Axes", "Controller", "Systems", or any other device-specific name the
// schema loader supplies — the core treats it opaquely.
type Component struct {
	ID         string
	Name       string
	Type       string
	Components []*Component
	DataItems  []*DataItem
}

// Device is the schema tree root: a stable uuid, a human name, and the
// component tree beneath it.
type Device struct {
	UUID string
	Name string
	Root *Component
}

// FromJSON decodes a {uuid, name, dataItems[], components[]} document into
// a Device. This is the (new) independent ingestion path SPEC_FULL.md
// adds so the core is testable/operable without the external XML loader
// spec.md treats as out of scope.
func FromJSON(b []byte) (*Device, error) {
	return decodeDeviceJSON(b)
}
