package cmn

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/atomic"

	"github.com/mtconnect-oss/mtcagent/cmn/cos"
)

// Config encapsulates every configuration value the agent reads at
// startup. Naming convention for -config_custom overrides: join the json
// tags with a dot, e.g. "store.sample_buffer_size=20000" — same convention
// the teacher documents on cmn.Config.
type Config struct {
	Net     NetConf     `json:"net"`
	Store   StoreConf   `json:"store"`
	Devices DevicesConf `json:"devices"`
	Log     LogConf     `json:"log"`
}

type NetConf struct {
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

type StoreConf struct {
	SampleBufferSize int           `json:"sample_buffer_size"`
	AssetBufferSize  int           `json:"asset_buffer_size"`
	ReplayCap        int           `json:"replay_cap"`
	StaleAfter       time.Duration `json:"stale_after"` // heartbeat staleness window, 0 disables
}

type DevicesConf struct {
	SchemaDir string `json:"schema_dir"` // directory of device-schema JSON fixtures
}

type LogConf struct {
	Verbosity int    `json:"verbosity"`
	ToStderr  bool   `json:"to_stderr"`
	Dir       string `json:"dir"`
	Debug     bool   `json:"debug"` // mounts /debug/... pprof+expvar handlers
}

func defaultConfig() *Config {
	return &Config{
		Net: NetConf{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 0, // streaming responses have no fixed write deadline
		},
		Store: StoreConf{
			SampleBufferSize: DefaultSampleBufferSize,
			AssetBufferSize:  DefaultAssetBufferSize,
			ReplayCap:        DefaultReplayCap,
			StaleAfter:       0,
		},
		Log: LogConf{ToStderr: true},
	}
}

// Validate accumulates every configuration error instead of returning on
// the first one, matching the multi-error philosophy spec.md §7 mandates
// for HTTP parameter validation — applied here to startup config too.
func (c *Config) Validate() error {
	var errs []string
	if c.Net.Port <= 0 || c.Net.Port > 65535 {
		errs = append(errs, fmt.Sprintf("net.port: invalid port %d", c.Net.Port))
	}
	if c.Store.SampleBufferSize < 1 {
		errs = append(errs, "store.sample_buffer_size: must be >= 1")
	}
	if c.Store.AssetBufferSize < 1 {
		errs = append(errs, "store.asset_buffer_size: must be >= 1")
	}
	if c.Store.ReplayCap < 1 {
		errs = append(errs, "store.replay_cap: must be >= 1")
	}
	if c.Devices.SchemaDir == "" {
		errs = append(errs, "devices.schema_dir: required")
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// LoadConfig reads a JSON config file over the defaults; a missing file
// path yields the defaults unchanged (a from-scratch local run needs only
// -devices_dir on the command line).
func LoadConfig(path string) (*Config, error) {
	c := defaultConfig()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapStartup(err, "read config")
	}
	if err := jsoniter.Unmarshal(b, c); err != nil {
		return nil, WrapStartup(err, "parse config "+path)
	}
	return c, nil
}

// ApplyKVS applies "key1=value1,key2=value2" command-line overrides onto
// c, using the teacher's -config_custom convention (ais/daemon.go) except
// scoped to the handful of dotted keys this agent exposes.
func (c *Config) ApplyKVS(kvs string) error {
	if kvs == "" {
		return nil
	}
	for _, kv := range strings.Split(kvs, ",") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("malformed override %q, expecting key=value", kv)
		}
		key, val := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if err := c.applyOne(key, val); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) applyOne(key, val string) error {
	switch key {
	case "net.port":
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("net.port: %w", err)
		}
		c.Net.Port = n
	case "store.sample_buffer_size":
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("store.sample_buffer_size: %w", err)
		}
		c.Store.SampleBufferSize = n
	case "store.asset_buffer_size":
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("store.asset_buffer_size: %w", err)
		}
		c.Store.AssetBufferSize = n
	case "store.replay_cap":
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("store.replay_cap: %w", err)
		}
		c.Store.ReplayCap = n
	case "store.stale_after":
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("store.stale_after: %w", err)
		}
		c.Store.StaleAfter = d
	case "devices.schema_dir":
		c.Devices.SchemaDir = val
	case "log.verbosity":
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("log.verbosity: %w", err)
		}
		c.Log.Verbosity = n
	case "log.to_stderr":
		b, err := cos.ParseBool(val)
		if err != nil {
			return fmt.Errorf("log.to_stderr: %w", err)
		}
		c.Log.ToStderr = b
	case "log.debug":
		b, err := cos.ParseBool(val)
		if err != nil {
			return fmt.Errorf("log.debug: %w", err)
		}
		c.Log.Debug = b
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// globalConfigOwner holds the live Config behind an atomic pointer so hot
// paths (every ingest call, every query) read it lock-free, matching the
// teacher's cmn.GCO / globalConfigOwner pattern (cmn/config.go).
type globalConfigOwner struct {
	mtx sync.Mutex
	c   atomic.Pointer[Config]
}

func (o *globalConfigOwner) Put(c *Config) {
	o.mtx.Lock()
	o.c.Store(c)
	o.mtx.Unlock()
}

func (o *globalConfigOwner) Get() *Config {
	c := o.c.Load()
	debugAssertNotNil(c)
	return c
}

func debugAssertNotNil(c *Config) {
	if c == nil {
		panic("config accessed before GCO.Put")
	}
}

// GCO is the process-wide config owner, named for parity with the
// teacher's cmn.GCO.
var GCO = &globalConfigOwner{}
