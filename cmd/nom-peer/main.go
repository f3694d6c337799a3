// Command nom-peer runs a NOM peer daemon.
//
// It binds the datagram socket, publishes the objects named in the
// configuration, optionally advertises itself over mDNS, and serves until
// interrupted.
//
// Usage:
//
//	nom-peer [flags]
//
// Flags:
//
//	-addr string       Listen address (default "0.0.0.0:12074")
//	-config string     YAML configuration file path
//	-instance string   mDNS instance name (default "nom-" + hostname)
//	-advertise         Advertise this peer over mDNS
//	-log-file string   Write CBOR protocol events to this file
//	-log-level string  Console log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Serve the built-in demo objects on the default port
//	nom-peer -advertise
//
//	# Serve a configured export set with protocol event capture
//	nom-peer -config /etc/nom/peer.yaml -log-file /var/log/nom/events.cbor
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nom-protocol/nom-go/pkg/discovery"
	nomlog "github.com/nom-protocol/nom-go/pkg/log"
	"github.com/nom-protocol/nom-go/pkg/service"
	"github.com/nom-protocol/nom-go/pkg/version"
)

// Config is the YAML configuration for nom-peer.
type Config struct {
	// Addr is the UDP listen address.
	Addr string `yaml:"addr"`

	// Workers overrides the dispatch pool size.
	Workers int `yaml:"workers"`

	// Advertise enables mDNS advertising.
	Advertise bool `yaml:"advertise"`

	// Instance is the mDNS instance name.
	Instance string `yaml:"instance"`

	// LogFile receives the CBOR protocol event stream.
	LogFile string `yaml:"log_file"`

	// CallTimeoutSeconds bounds one outbound proxy operation.
	CallTimeoutSeconds int `yaml:"call_timeout_seconds"`

	// Exports maps public names to literal values to publish.
	Exports map[string]any `yaml:"exports"`
}

func defaultConfig() Config {
	host, _ := os.Hostname()
	if host == "" {
		host = "peer"
	}
	return Config{
		Addr:     "0.0.0.0:12074",
		Instance: "nom-" + host,
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Counter is a demo export: a remotely callable, remotely readable counter.
type Counter struct {
	n atomic.Int64
}

// Incr adds delta and returns the new value.
func (c *Counter) Incr(delta int64) int64 {
	return c.n.Add(delta)
}

// Value returns the current value.
func (c *Counter) Value() int64 {
	return c.n.Load()
}

// Clock is a demo export answering time queries.
type Clock struct{}

// Now returns the current time as RFC 3339 text.
func (Clock) Now() string {
	return time.Now().Format(time.RFC3339Nano)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	var (
		addrFlag      = flag.String("addr", "", "listen address (overrides config)")
		configFlag    = flag.String("config", "", "YAML configuration file")
		instanceFlag  = flag.String("instance", "", "mDNS instance name (overrides config)")
		advertiseFlag = flag.Bool("advertise", false, "advertise this peer over mDNS")
		logFileFlag   = flag.String("log-file", "", "CBOR protocol event file (overrides config)")
		logLevelFlag  = flag.String("log-level", "info", "console log level")
	)
	flag.Parse()

	cfg, err := loadConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nom-peer: %v\n", err)
		os.Exit(1)
	}
	if *addrFlag != "" {
		cfg.Addr = *addrFlag
	}
	if *instanceFlag != "" {
		cfg.Instance = *instanceFlag
	}
	if *advertiseFlag {
		cfg.Advertise = true
	}
	if *logFileFlag != "" {
		cfg.LogFile = *logFileFlag
	}

	console := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(*logLevelFlag),
	}))
	slog.SetDefault(console)

	loggers := []nomlog.Logger{nomlog.NewSlogAdapter(console)}
	if cfg.LogFile != "" {
		fl, err := nomlog.NewFileLogger(cfg.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "nom-peer: open log file: %v\n", err)
			os.Exit(1)
		}
		defer fl.Close()
		loggers = append(loggers, fl)
	}

	svc := service.New(service.Config{
		Addr:        cfg.Addr,
		Workers:     cfg.Workers,
		Logger:      nomlog.NewMultiLogger(loggers...),
		CallTimeout: time.Duration(cfg.CallTimeoutSeconds) * time.Second,
	})

	// Built-in demo exports plus whatever the configuration names.
	mustRegister(svc, "counter", &Counter{})
	mustRegister(svc, "clock", Clock{})
	for name, val := range cfg.Exports {
		mustRegister(svc, name, val)
	}

	if err := svc.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "nom-peer: %v\n", err)
		os.Exit(1)
	}
	console.Info("nom-peer serving",
		"build", version.UserAgent(),
		"addr", svc.LocalAddr().String(),
		"service_id", svc.ID(),
		"exports", strings.Join(svc.ListNames(), ","))

	if cfg.Advertise {
		adv, err := discovery.Advertise(cfg.Instance, svc.LocalAddr().Port, svc.ID())
		if err != nil {
			console.Warn("mDNS advertising unavailable", "err", err)
		} else {
			defer adv.Shutdown()
			console.Info("advertising over mDNS", "instance", cfg.Instance)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	console.Info("shutting down")
	if err := svc.Stop(); err != nil {
		console.Error("stop failed", "err", err)
	}
}

func mustRegister(svc *service.Service, name string, obj any) {
	if err := svc.Register(name, obj); err != nil {
		fmt.Fprintf(os.Stderr, "nom-peer: register %s: %v\n", name, err)
		os.Exit(1)
	}
}
