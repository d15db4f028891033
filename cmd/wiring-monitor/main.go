// Command wiring-monitor is an interactive console for a remote Firmata
// board: it connects over a serial port or TCP, runs capability
// negotiation, and exposes the pin API as shell commands.
//
// Usage:
//
//	wiring-monitor [flags]
//
// Flags:
//
//	-config string        Configuration file path (YAML)
//	-serial string        Serial port path (e.g. /dev/ttyACM0)
//	-baud int             Serial baud rate (default 57600)
//	-tcp string           TCP address (host:port) of a network board
//	-board string         mDNS instance name of a network board to discover
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  Write protocol events (CBOR) to this file
//
// Examples:
//
//	# Connect to a board on a serial port
//	wiring-monitor -serial /dev/ttyACM0
//
//	# Connect to a WiFi board by address
//	wiring-monitor -tcp 192.168.1.40:3030
//
//	# Discover a WiFi board via mDNS and record the protocol exchange
//	wiring-monitor -board nano33 -protocol-log session.cborlog
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/remote-wiring/wiring-go/pkg/discovery"
	"github.com/remote-wiring/wiring-go/pkg/log"
	"github.com/remote-wiring/wiring-go/pkg/transport"
	"github.com/remote-wiring/wiring-go/pkg/version"
	"github.com/remote-wiring/wiring-go/pkg/wiring"
)

// Config holds the monitor configuration, from flags or a YAML file.
// Flags win over file values.
type Config struct {
	Serial      string `yaml:"serial"`
	Baud        int    `yaml:"baud"`
	TCP         string `yaml:"tcp"`
	Board       string `yaml:"board"`
	LogLevel    string `yaml:"log_level"`
	ProtocolLog string `yaml:"protocol_log"`
}

var config Config

func init() {
	flag.StringVar(&config.Serial, "serial", "", "Serial port path")
	flag.IntVar(&config.Baud, "baud", 0, "Serial baud rate")
	flag.StringVar(&config.TCP, "tcp", "", "TCP address (host:port)")
	flag.StringVar(&config.Board, "board", "", "mDNS instance name to discover")
	flag.StringVar(&config.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&config.ProtocolLog, "protocol-log", "", "Protocol event log file (CBOR)")
}

func main() {
	configFile := flag.String("config", "", "Configuration file path")
	flag.Parse()

	if *configFile != "" {
		if err := loadConfig(*configFile, &config); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}
	if config.Baud == 0 {
		config.Baud = transport.DefaultBaudRate
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}

	logger := setupLogging(config.LogLevel)

	if err := run(logger); err != nil {
		logger.Error("monitor failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stream, err := selectStream(ctx, logger)
	if err != nil {
		return err
	}

	dev := wiring.NewDevice(stream)

	protoLog, err := setupProtocolLog(logger)
	if err != nil {
		return err
	}
	if protoLog != nil {
		dev.Client().SetLogger(protoLog)
	}

	dev.Client().OnProtocolVersion(func(major, minor uint8) {
		reported := version.FromBytes(major, minor)
		if !version.MustParse(version.Current).Compatible(reported) {
			logger.Warn("protocol version mismatch",
				"board", reported.String(), "library", version.Current)
			return
		}
		logger.Info("protocol version", "version", reported.String())
	})

	ready := make(chan struct{})
	dev.OnDeviceReady(func() {
		logger.Info("device ready",
			"pins", dev.TotalPins(),
			"analog", dev.NumAnalogPins(),
			"analog_offset", dev.AnalogOffset())
		close(ready)
	})
	dev.OnConnectionLost(func(message string) {
		logger.Error("connection lost", "reason", message)
		stop()
	})

	logger.Info("connecting", "transport", stream.Description())
	if err := dev.Connect(ctx); err != nil {
		return err
	}
	defer dev.Close()

	select {
	case <-ready:
	case <-ctx.Done():
		return ctx.Err()
	}
	_ = dev.Client().SendProtocolVersionQuery()

	shell, err := newShell(dev, logger)
	if err != nil {
		return err
	}
	shell.run(ctx, stop)
	return nil
}

// selectStream builds the transport from the configuration: an explicit
// serial port or TCP address, or an mDNS lookup by board name.
func selectStream(ctx context.Context, logger *slog.Logger) (transport.Stream, error) {
	switch {
	case config.Serial != "":
		return transport.NewSerialStream(config.Serial, config.Baud), nil

	case config.TCP != "":
		return transport.NewTCPStream(config.TCP), nil

	case config.Board != "":
		logger.Info("discovering board", "name", config.Board)
		browser := discovery.NewBrowser(discovery.Config{})
		svc, err := browser.Find(ctx, config.Board)
		if err != nil {
			return nil, err
		}
		logger.Info("board found", "host", svc.Host, "address", svc.Address())
		return transport.NewTCPStream(svc.Address()), nil

	default:
		return nil, errors.New("no board selected: pass -serial, -tcp or -board")
	}
}

func setupProtocolLog(logger *slog.Logger) (log.Logger, error) {
	var loggers []log.Logger
	if config.ProtocolLog != "" {
		fl, err := log.NewFileLogger(config.ProtocolLog)
		if err != nil {
			return nil, fmt.Errorf("protocol log: %w", err)
		}
		loggers = append(loggers, fl)
	}
	if config.LogLevel == "debug" {
		loggers = append(loggers, log.NewSlogAdapter(logger))
	}

	switch len(loggers) {
	case 0:
		return nil, nil
	case 1:
		return loggers[0], nil
	default:
		return log.NewMultiLogger(loggers...), nil
	}
}

func setupLogging(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
	slog.SetDefault(logger)
	return logger
}

func loadConfig(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fromFile Config
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	// Flags win; fill only what is still unset.
	if cfg.Serial == "" {
		cfg.Serial = fromFile.Serial
	}
	if cfg.Baud == 0 {
		cfg.Baud = fromFile.Baud
	}
	if cfg.TCP == "" {
		cfg.TCP = fromFile.TCP
	}
	if cfg.Board == "" {
		cfg.Board = fromFile.Board
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = fromFile.LogLevel
	}
	if cfg.ProtocolLog == "" {
		cfg.ProtocolLog = fromFile.ProtocolLog
	}
	return nil
}
