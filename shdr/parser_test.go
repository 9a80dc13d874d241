package shdr

import (
	"testing"

	"github.com/mtconnect-oss/mtcagent/cmn"
)

func categoryTable(t map[string]cmn.Category) CategoryOf {
	return func(key string) (cmn.Category, bool) {
		c, ok := t[key]
		return c, ok
	}
}

func TestParseAvailability(t *testing.T) {
	categoryOf := categoryTable(map[string]cmn.Category{"avail": cmn.Event})
	line, ok := Parse("000", "2014-08-11T08:32:54.028533Z|avail|AVAILABLE", categoryOf)
	if !ok {
		t.Fatal("expected line to parse")
	}
	if got := line.RawTime; got != "2014-08-11T08:32:54.028533Z" {
		t.Errorf("RawTime = %q", got)
	}
	if len(line.DataItems) != 1 {
		t.Fatalf("len(DataItems) = %d, want 1", len(line.DataItems))
	}
	di := line.DataItems[0]
	if di.Key != "avail" || di.Scalar() != "AVAILABLE" {
		t.Errorf("got {%q, %q}", di.Key, di.Scalar())
	}
}

func TestParseMultipleEvents(t *testing.T) {
	categoryOf := categoryTable(map[string]cmn.Category{
		"execution": cmn.Event, "line": cmn.Event, "mode": cmn.Event,
		"program": cmn.Event, "Fovr": cmn.Sample, "Sovr": cmn.Sample,
	})
	raw := "2014-08-13T07:38:27.663Z|execution|UNAVAILABLE|line|UNAVAILABLE|mode|UNAVAILABLE|program|UNAVAILABLE|Fovr|UNAVAILABLE|Sovr|UNAVAILABLE"
	line, ok := Parse("000", raw, categoryOf)
	if !ok {
		t.Fatal("expected line to parse")
	}
	wantKeys := []string{"execution", "line", "mode", "program", "Fovr", "Sovr"}
	if len(line.DataItems) != len(wantKeys) {
		t.Fatalf("len(DataItems) = %d, want %d", len(line.DataItems), len(wantKeys))
	}
	for i, key := range wantKeys {
		if line.DataItems[i].Key != key {
			t.Errorf("DataItems[%d].Key = %q, want %q", i, line.DataItems[i].Key, key)
		}
		if line.DataItems[i].Scalar() != "UNAVAILABLE" {
			t.Errorf("DataItems[%d].Scalar() = %q, want UNAVAILABLE", i, line.DataItems[i].Scalar())
		}
	}
}

func TestParseCondition(t *testing.T) {
	categoryOf := categoryTable(map[string]cmn.Category{"htemp": cmn.Condition})
	raw := "2010-09-29T23:59:33.460470Z|htemp|WARNING|HTEMP|1|HIGH|Oil Temperature High"
	line, ok := Parse("000", raw, categoryOf)
	if !ok {
		t.Fatal("expected line to parse")
	}
	if len(line.DataItems) != 1 {
		t.Fatalf("len(DataItems) = %d, want 1", len(line.DataItems))
	}
	di := line.DataItems[0]
	want := []string{"WARNING", "HTEMP", "1", "HIGH", "Oil Temperature High"}
	if di.Key != "htemp" || len(di.Tokens) != 5 {
		t.Fatalf("got %+v", di)
	}
	for i, w := range want {
		if di.Tokens[i] != w {
			t.Errorf("Tokens[%d] = %q, want %q", i, di.Tokens[i], w)
		}
	}
}

func TestParseConditionGlobalClear(t *testing.T) {
	categoryOf := categoryTable(map[string]cmn.Category{"Cloadc": cmn.Condition})
	line, ok := Parse("000", "2016-04-12T20:27:01.0530|Cloadc|NORMAL||||", categoryOf)
	if !ok {
		t.Fatal("expected line to parse")
	}
	di := line.DataItems[0]
	want := []string{"NORMAL", "", "", "", ""}
	for i, w := range want {
		if di.Tokens[i] != w {
			t.Errorf("Tokens[%d] = %q, want %q", i, di.Tokens[i], w)
		}
	}
}

func TestParseAssetFlow(t *testing.T) {
	categoryOf := categoryTable(nil)

	upsert, ok := Parse("000", `2012-02-21T23:59:33.460470Z|@ASSET@|EM233|CuttingTool|<CuttingTool id="1"/>`, categoryOf)
	if !ok {
		t.Fatal("expected @ASSET@ line to parse")
	}
	if len(upsert.Assets) != 1 {
		t.Fatalf("len(Assets) = %d, want 1", len(upsert.Assets))
	}
	a := upsert.Assets[0]
	if a.Kind != cmn.CmdAsset || a.AssetID != "EM233" || a.AssetType != "CuttingTool" {
		t.Fatalf("got %+v", a)
	}
	if a.XML != `<CuttingTool id="1"/>` {
		t.Errorf("XML = %q", a.XML)
	}

	update, ok := Parse("000", "2012-02-21T23:59:34.460470Z|@UPDATE_ASSET@|EM233|ToolLife|120|CuttingDiameterMax|40", categoryOf)
	if !ok {
		t.Fatal("expected @UPDATE_ASSET@ line to parse")
	}
	if len(update.Assets) != 1 {
		t.Fatalf("len(Assets) = %d, want 1", len(update.Assets))
	}
	u := update.Assets[0]
	if u.Kind != cmn.CmdUpdateAsset || u.AssetID != "EM233" {
		t.Fatalf("got %+v", u)
	}
	wantKVs := []KV{{"ToolLife", "120"}, {"CuttingDiameterMax", "40"}}
	if len(u.KVs) != len(wantKVs) {
		t.Fatalf("len(KVs) = %d, want %d", len(u.KVs), len(wantKVs))
	}
	for i, kv := range wantKVs {
		if u.KVs[i] != kv {
			t.Errorf("KVs[%d] = %+v, want %+v", i, u.KVs[i], kv)
		}
	}
}

func TestParseUnknownKeyIsSkippedNotFatal(t *testing.T) {
	categoryOf := categoryTable(map[string]cmn.Category{"avail": cmn.Event})
	line, ok := Parse("000", "2014-08-11T08:32:54.028533Z|mystery|42|avail|AVAILABLE", categoryOf)
	if !ok {
		t.Fatal("expected line to parse despite the unknown key")
	}
	if len(line.DataItems) != 1 || line.DataItems[0].Key != "avail" {
		t.Fatalf("got %+v", line.DataItems)
	}
}

func TestParseTruncatedLineDiscarded(t *testing.T) {
	if _, ok := Parse("000", "2014-08-11T08:32:54.028533Z|avail", categoryTable(nil)); ok {
		t.Fatal("expected truncated line to be discarded")
	}
}

func TestParseMalformedTimestampDiscarded(t *testing.T) {
	if _, ok := Parse("000", "not-a-time|avail|AVAILABLE", categoryTable(nil)); ok {
		t.Fatal("expected malformed timestamp to be discarded")
	}
}
