// Package agent wires the Schema Index, Data Store, Asset Store, and
// Response Assembler into a running process: CLI flags, configuration,
// the HTTP surface, the adapter ingest loop, and housekeeping — the role
// the teacher's ais package plays for a cluster node (ais/daemon.go),
// scoped down to this agent's single role.
package agent

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/atomic"

	"github.com/golang/glog"

	"github.com/mtconnect-oss/mtcagent/cmn"
	"github.com/mtconnect-oss/mtcagent/cmn/cos"
	"github.com/mtconnect-oss/mtcagent/response"
	"github.com/mtconnect-oss/mtcagent/schema"
	"github.com/mtconnect-oss/mtcagent/stats"
	"github.com/mtconnect-oss/mtcagent/store"
)

const usecli = `
   Usage:
        mtcagent -config=</path/config.json> -devices_dir=</dir/of/device/fixtures> [-config_custom=key=value,...]`

type cliFlags struct {
	configPath string
	devicesDir string
	confCustom string
	port       int
	usage      bool
}

type daemonCtx struct {
	cli      cliFlags
	rg       *rungroup
	stopping atomic.Bool

	reg        *schema.Registry
	data       *store.DataStore
	assets     *store.AssetStore
	assembler  *response.Assembler
	metrics    *stats.Metrics
	sources    *sourceRegistry
	instanceID string
}

var daemon = daemonCtx{}

func init() {
	flag.StringVar(&daemon.cli.configPath, "config", "", "config filename: JSON file overriding the built-in defaults")
	flag.StringVar(&daemon.cli.devicesDir, "devices_dir", "", "directory of device-schema JSON fixtures to load at startup")
	flag.StringVar(&daemon.cli.confCustom, "config_custom", "", "\"key1=value1,key2=value2\" formatted string to override selected config entries")
	flag.IntVar(&daemon.cli.port, "port", 0, "HTTP port to listen on (overrides config's net.port when nonzero)")
	flag.BoolVar(&daemon.cli.usage, "h", false, "show usage and exit")
}

// rungroup starts and stops every long-lived Runner together, exactly like
// ais/daemon.go's rungroup: the first runner to exit triggers an orderly
// stop of the rest.
type rungroup struct {
	rs    map[string]cos.Runner
	errCh chan error
}

func newRungroup() *rungroup { return &rungroup{rs: make(map[string]cos.Runner, 8)} }

func (g *rungroup) add(r cos.Runner) {
	cos.Assert(r.Name() != "", "runner with empty name")
	_, exists := g.rs[r.Name()]
	cos.Assert(!exists, "duplicate runner name "+r.Name())
	g.rs[r.Name()] = r
}

func (g *rungroup) run() error {
	g.errCh = make(chan error, len(g.rs))
	for _, r := range g.rs {
		go func(r cos.Runner) {
			err := r.Run()
			if err != nil {
				glog.Warningf("runner [%s] exited with err [%v]", r.Name(), err)
			}
			g.errCh <- err
		}(r)
	}
	err := <-g.errCh
	daemon.stopping.Store(true)
	for _, r := range g.rs {
		r.Stop(err)
	}
	for i := 0; i < len(g.rs)-1; i++ {
		<-g.errCh
	}
	return err
}

// initDaemon parses flags, loads configuration, builds every core
// component, registers every device fixture found under -devices_dir, and
// assembles the set of Runners the rungroup will drive.
func initDaemon() {
	flag.Parse()
	if daemon.cli.usage {
		flag.Usage()
		cos.Exitf(usecli)
	}
	if daemon.cli.devicesDir == "" {
		cos.ExitLogf("Missing `-devices_dir` flag pointing to a directory of device-schema fixtures")
	}

	config, err := cmn.LoadConfig(daemon.cli.configPath)
	if err != nil {
		cos.ExitLogf("%v", err)
	}
	config.Devices.SchemaDir = daemon.cli.devicesDir
	if daemon.cli.port != 0 {
		config.Net.Port = daemon.cli.port
	}
	if err := config.ApplyKVS(daemon.cli.confCustom); err != nil {
		cos.ExitLogf("%v", err)
	}
	if err := config.Validate(); err != nil {
		cos.ExitLogf("%v", err)
	}
	cmn.GCO.Put(config)

	cmn.InitInstanceID(uint64(time.Now().UnixNano()))
	daemon.instanceID = cmn.GenInstanceID()

	daemon.reg = schema.NewRegistry()
	daemon.data = store.NewDataStore(config.Store.SampleBufferSize, config.Store.ReplayCap)
	daemon.assets = store.NewAssetStore(config.Store.AssetBufferSize)
	daemon.metrics = stats.NewMetrics()
	daemon.assembler = response.NewAssembler(daemon.reg, daemon.data, daemon.assets,
		cmn.DefaultSender, daemon.instanceID, config.Store.SampleBufferSize, config.Store.AssetBufferSize)
	daemon.sources = newSourceRegistry()

	loaded, err := loadDeviceFixtures(config.Devices.SchemaDir, daemon.reg)
	if err != nil {
		cos.ExitLogf("%v", err)
	}
	glog.Infof("registered %d device(s) from %s", loaded, config.Devices.SchemaDir)

	daemon.rg = newRungroup()
	srv := newServer(config, daemon.reg, daemon.assembler, daemon.metrics, daemon.assets, daemon.data)
	daemon.rg.add(srv)
	for _, src := range daemon.sources.All() {
		daemon.rg.add(src)
	}
	daemon.rg.add(stats.NewReporter(daemon.metrics, daemon.data, daemon.assets, time.Minute))
	if config.Store.StaleAfter > 0 {
		daemon.rg.add(newHousekeeper(daemon.reg, daemon.data, daemon.sources, config.Store.StaleAfter))
	}
}

// Run parses flags, brings every component up, and blocks until the
// rungroup reports a terminal error — the 'main' every cmd/mtcagent
// invokes, mirroring ais/daemon.go's Run(version, buildTime).
func Run() int {
	defer glog.Flush()
	initDaemon()
	err := daemon.rg.run()
	if err == nil {
		glog.Infoln("terminated OK")
		return 0
	}
	glog.Errorf("terminated with err: %s", err)
	return 1
}

func init() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, usecli)
		flag.PrintDefaults()
	}
}
