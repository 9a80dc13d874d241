package schema

import (
	"testing"

	"github.com/mtconnect-oss/mtcagent/cmn"
)

func deviceWithAxesAndAvailability() *Device {
	return &Device{
		UUID: "000", Name: "VMC-3Axis",
		Root: &Component{
			ID: "dev", Name: "VMC-3Axis", Type: "Device",
			DataItems: []*DataItem{
				{ID: "avail", Name: "avail", Type: "AVAILABILITY", Category: cmn.Event},
			},
			Components: []*Component{
				{
					ID: "axes", Name: "axes", Type: "Axes",
					Components: []*Component{
						{
							ID: "x", Name: "X", Type: "Linear",
							DataItems: []*DataItem{
								{ID: "xpos", Name: "Xpos", Type: "POSITION", Category: cmn.Sample},
							},
						},
					},
				},
			},
		},
	}
}

func TestPathValidationAvailabilityPredicate(t *testing.T) {
	reg := NewRegistry()
	reg.Register(deviceWithAxesAndAvailability())

	p, err := ParsePath(`//DataItem[@type="AVAILABILITY"]`)
	if err != nil {
		t.Fatal(err)
	}
	if !reg.PathValidation(p, []string{"000"}) {
		t.Error("expected //DataItem[@type=\"AVAILABILITY\"] to match")
	}
}

func TestPathValidationBareComponentPathNeverMatchesDataItem(t *testing.T) {
	reg := NewRegistry()
	reg.Register(deviceWithAxesAndAvailability())

	p, err := ParsePath("//Axes")
	if err != nil {
		t.Fatal(err)
	}
	if reg.PathValidation(p, []string{"000"}) {
		t.Error("expected a bare component path to never match a DataItem predicate")
	}
}

func TestParsePathInvalidSyntax(t *testing.T) {
	_, err := ParsePath("not an xpath at all")
	if err == nil {
		t.Fatal("expected an error for unparseable syntax")
	}
	qerr, ok := err.(*cmn.QueryError)
	if !ok || qerr.Code != cmn.ErrInvalidXPath {
		t.Fatalf("got %+v, want INVALID_XPATH", err)
	}
}

func TestFilterDataItemNilPassesEverything(t *testing.T) {
	di := &DataItem{ID: "avail", Type: "AVAILABILITY"}
	var p *ParsedPath
	if !p.FilterDataItem(di) {
		t.Error("a nil filter should pass every data item")
	}
}

func TestFilterDataItemMatchesByAttr(t *testing.T) {
	p, err := ParsePath(`//DataItem[@subType="ACTUAL"]`)
	if err != nil {
		t.Fatal(err)
	}
	match := &DataItem{ID: "xpos", SubType: "ACTUAL"}
	miss := &DataItem{ID: "xpos_cmd", SubType: "COMMANDED"}
	if !p.FilterDataItem(match) {
		t.Error("expected the ACTUAL data item to pass the filter")
	}
	if p.FilterDataItem(miss) {
		t.Error("expected the COMMANDED data item to be filtered out")
	}
}
