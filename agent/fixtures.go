package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/mtconnect-oss/mtcagent/cmn"
	"github.com/mtconnect-oss/mtcagent/schema"
)

// adapterFixture is the subset of a device fixture file the agent package
// reads for itself: where to dial for that device's SHDR feed. The schema
// package only ever sees the device-description fields (schema.FromJSON
// silently ignores this one, jsoniter's default behavior for unrecognized
// keys), keeping the Schema Index independent of transport details.
type adapterFixture struct {
	Adapter struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	} `json:"adapter"`
}

// loadDeviceFixtures registers every *.json file under dir as a device,
// and — when its "adapter" field is present — starts a TCP source feeding
// that device's SHDR lines into the ingest pipeline (SPEC_FULL.md's
// Adapter Source module).
func loadDeviceFixtures(dir string, reg *schema.Registry) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, cmn.WrapStartup(err, "read devices_dir "+dir)
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		b, err := os.ReadFile(path)
		if err != nil {
			return count, cmn.WrapStartup(err, "read fixture "+path)
		}
		dev, err := schema.FromJSON(b)
		if err != nil {
			return count, cmn.WrapStartup(err, "parse fixture "+path)
		}
		if dev.UUID == "" {
			return count, fmt.Errorf("fixture %s has no uuid", path)
		}
		if !reg.Register(dev) {
			return count, fmt.Errorf("duplicate device uuid %s in %s", dev.UUID, path)
		}
		count++

		var af adapterFixture
		if err := jsoniter.Unmarshal(b, &af); err == nil && af.Adapter.Host != "" {
			daemon.sources.add(newAdapterSource(dev.UUID, af.Adapter.Host, af.Adapter.Port))
		}
	}
	return count, nil
}
