// Command lprintd is the label-printing daemon: it loads the configured
// printer list, opens each printer's device transport lazily through its
// own worker, and exposes a diagnostic HTTP surface (/printers, /events)
// for observability. The IPP front-end that hands it jobs is external to
// this binary, per its scope.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/kardianos/service"

	"lprintd/internal/config"
	"lprintd/internal/driver"
	"lprintd/internal/job"
	"lprintd/internal/logger"
	"lprintd/internal/printer"
	"lprintd/internal/statusbus"
	"lprintd/internal/store"
	"lprintd/internal/wsfeed"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// daemon holds every long-lived subsystem brought up by runInteractive, so
// Stop (whether from a signal or a service manager) can tear them down in
// reverse order.
type daemon struct {
	log      *logger.Logger
	hub      *statusbus.Hub
	st       *store.Store
	registry *printer.Registry
	httpSrv  *http.Server
}

func bringUp(cfg *config.Config) (*daemon, error) {
	level := logger.INFO
	switch cfg.LogLevel {
	case "error":
		level = logger.ERROR
	case "warn":
		level = logger.WARN
	case "debug":
		level = logger.DEBUG
	case "trace":
		level = logger.TRACE
	}
	log := logger.New(level, cfg.LogDir, "lprintd", 1024)

	hub := statusbus.NewHub()

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		log.Close()
		hub.Stop()
		return nil, fmt.Errorf("opening store: %w", err)
	}

	registry := printer.NewRegistry()
	for _, pc := range cfg.Printers {
		rec, err := driver.Lookup(pc.Driver)
		if err != nil {
			log.Error("skipping printer with unknown driver", "printer", pc.Name, "driver", pc.Driver, "error", err.Error())
			continue
		}
		if pc.DarknessConfigured != 0 {
			rec.DarknessConfigured = pc.DarknessConfigured
		}
		if pc.TearOffset != 0 {
			rec.TearOffsetConfigured = pc.TearOffset
		}

		p := printer.New(pc.Name, pc.DeviceURI, rec, job.Default(), log, hub)
		p.SetStore(st)
		registry.Add(p)
		log.Info("printer registered", "printer", pc.Name, "driver", pc.Driver, "uri", pc.DeviceURI)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/printers", func(w http.ResponseWriter, r *http.Request) {
		for _, name := range registry.List() {
			p, ok := registry.Get(name)
			if !ok {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", name, p.State(), p.URI)
		}
	})
	mux.Handle("/events", wsfeed.NewHandler(hub))

	httpSrv := &http.Server{Addr: "127.0.0.1:6310", Handler: mux}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("diagnostic http server exited", "error", err.Error())
		}
	}()

	return &daemon{log: log, hub: hub, st: st, registry: registry, httpSrv: httpSrv}, nil
}

func (d *daemon) shutdown() {
	d.httpSrv.Close()
	d.registry.Shutdown()
	d.st.Close()
	d.hub.Stop()
	d.log.Close()
}

func runInteractive(ctx context.Context, configPath string) error {
	if configPath != "" {
		os.Setenv("LPRINTD_CONFIG", configPath)
	}
	cfg, source, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	d, err := bringUp(cfg)
	if err != nil {
		return err
	}
	if source != "" {
		d.log.Info("loaded configuration", "path", source)
	} else {
		d.log.Info("no configuration file found, using defaults")
	}

	<-ctx.Done()
	d.shutdown()
	return nil
}

// program implements service.Interface via a context-cancel/done-channel
// wrapper around runInteractive.
type program struct {
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	configPath string
}

func (p *program) Start(s service.Service) error {
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		runInteractive(p.ctx, p.configPath)
	}()
	return nil
}

func (p *program) Stop(s service.Service) error {
	if p.cancel != nil {
		p.cancel()
	}
	select {
	case <-p.done:
	case <-time.After(60 * time.Second):
	}
	return nil
}

func serviceConfig() *service.Config {
	return &service.Config{
		Name:        "lprintd",
		DisplayName: "lprintd Label Printing Daemon",
		Description: "Drives thermal label printers from spooled IPP jobs.",
		Arguments:   []string{"--service", "run"},
		Option: service.KeyValue{
			"Restart":    "on-failure",
			"RestartSec": 5,
		},
	}
}

func main() {
	configPath := flag.String("config", "", "Configuration file path (overrides search path)")
	serviceCmd := flag.String("service", "", "Service control: install, uninstall, start, stop, run")
	showVersion := flag.Bool("version", false, "Show version information and exit")
	listDrivers := flag.Bool("list-drivers", false, "List known driver names and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("lprintd %s (built %s, %s)\n", Version, BuildTime, GitCommit)
		fmt.Printf("Go %s, %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		return
	}

	if *listDrivers {
		for _, name := range driver.Names() {
			fmt.Println(name)
		}
		return
	}

	prg := &program{configPath: *configPath}

	if *serviceCmd != "" {
		s, err := service.New(prg, serviceConfig())
		if err != nil {
			fmt.Fprintf(os.Stderr, "creating service: %v\n", err)
			os.Exit(1)
		}
		if err := service.Control(s, *serviceCmd); err != nil {
			fmt.Fprintf(os.Stderr, "service control %q: %v\n", *serviceCmd, err)
			os.Exit(1)
		}
		return
	}

	if !service.Interactive() {
		s, err := service.New(prg, serviceConfig())
		if err != nil {
			fmt.Fprintf(os.Stderr, "creating service: %v\n", err)
			os.Exit(1)
		}
		if err := s.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "service run: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runInteractive(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
