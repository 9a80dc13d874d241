package agent

import (
	"net/http/httptest"
	"testing"

	"github.com/mtconnect-oss/mtcagent/cmn"
	"github.com/mtconnect-oss/mtcagent/response"
)

func TestParsePathRoot(t *testing.T) {
	kind, devices, assets, ok := parsePath("/")
	if !ok || kind != response.KindProbe || devices != nil || assets != nil {
		t.Fatalf("got kind=%v devices=%v assets=%v ok=%v", kind, devices, assets, ok)
	}
}

func TestParsePathBareRoute(t *testing.T) {
	kind, devices, _, ok := parsePath("/current")
	if !ok || kind != response.KindCurrent || devices != nil {
		t.Fatalf("got kind=%v devices=%v ok=%v", kind, devices, ok)
	}
}

func TestParsePathDeviceOnlyMeansProbe(t *testing.T) {
	kind, devices, _, ok := parsePath("/VMC-3Axis")
	if !ok || kind != response.KindProbe {
		t.Fatalf("got kind=%v ok=%v", kind, ok)
	}
	if len(devices) != 1 || devices[0] != "VMC-3Axis" {
		t.Fatalf("got devices=%v", devices)
	}
}

func TestParsePathMultiDeviceSample(t *testing.T) {
	kind, devices, _, ok := parsePath("/VMC-3Axis;VMC-4Axis/sample")
	if !ok || kind != response.KindSample {
		t.Fatalf("got kind=%v ok=%v", kind, ok)
	}
	if len(devices) != 2 || devices[0] != "VMC-3Axis" || devices[1] != "VMC-4Axis" {
		t.Fatalf("got devices=%v", devices)
	}
}

func TestParsePathAssetWithIDs(t *testing.T) {
	kind, devices, assets, ok := parsePath("/asset/EM233;EM234")
	if !ok || kind != response.KindAsset || devices != nil {
		t.Fatalf("got kind=%v devices=%v ok=%v", kind, devices, ok)
	}
	if len(assets) != 2 || assets[0] != "EM233" || assets[1] != "EM234" {
		t.Fatalf("got assets=%v", assets)
	}
}

func TestParsePathAssetBare(t *testing.T) {
	kind, _, assets, ok := parsePath("/asset")
	if !ok || kind != response.KindAsset || assets != nil {
		t.Fatalf("got kind=%v assets=%v ok=%v", kind, assets, ok)
	}
}

func TestParsePathUnrecognizedRoute(t *testing.T) {
	if _, _, _, ok := parsePath("/VMC-3Axis/bogus"); ok {
		t.Fatal("expected an unrecognized route segment to fail parsing")
	}
}

func TestParsePathTooManySegments(t *testing.T) {
	if _, _, _, ok := parsePath("/a/b/c"); ok {
		t.Fatal("expected more than two path segments to fail parsing")
	}
}

func TestParseQueryParamsValid(t *testing.T) {
	r := httptest.NewRequest("GET", "/current?at=42&interval=1000&path=%2F%2FAxes", nil)
	var q response.Query
	errs := parseQueryParams(r, &q)
	if len(errs) != 0 {
		t.Fatalf("got errs=%v, want none", errs)
	}
	if q.At == nil || *q.At != 42 {
		t.Fatalf("At = %v, want 42", q.At)
	}
	if q.Interval == nil || *q.Interval != 1000 {
		t.Fatalf("Interval = %v, want 1000", q.Interval)
	}
	if q.Path != "//Axes" {
		t.Fatalf("Path = %q, want //Axes", q.Path)
	}
}

func TestParseQueryParamsMalformedCount(t *testing.T) {
	r := httptest.NewRequest("GET", "/sample?count=notanumber", nil)
	var q response.Query
	errs := parseQueryParams(r, &q)
	if len(errs) != 1 {
		t.Fatalf("got %d errs, want 1", len(errs))
	}
	if errs[0].Code != cmn.ErrInvalidReq {
		t.Errorf("Code = %q, want %q", errs[0].Code, cmn.ErrInvalidReq)
	}
	if q.Count != nil {
		t.Errorf("Count = %v, want nil after a parse failure", q.Count)
	}
}

func TestParseQueryParamsIntervalOutOfRange(t *testing.T) {
	r := httptest.NewRequest("GET", "/current?interval=-1", nil)
	var q response.Query
	errs := parseQueryParams(r, &q)
	if len(errs) != 1 || errs[0].Code != cmn.ErrOutOfRange {
		t.Fatalf("got errs=%v, want a single OUT_OF_RANGE", errs)
	}
}

func TestParseQueryParamsAccumulatesMultipleErrors(t *testing.T) {
	r := httptest.NewRequest("GET", "/sample?from=nope&count=nope", nil)
	var q response.Query
	errs := parseQueryParams(r, &q)
	if len(errs) != 2 {
		t.Fatalf("got %d errs, want 2 (from and count both malformed)", len(errs))
	}
}
