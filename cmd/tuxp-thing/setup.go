package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mud-protocol/tuxp-go/pkg/commissioning"
	"github.com/mud-protocol/tuxp-go/pkg/discovery"
	"github.com/mud-protocol/tuxp-go/pkg/identity"
	tuxplog "github.com/mud-protocol/tuxp-go/pkg/log"
	"github.com/mud-protocol/tuxp-go/pkg/persistence"
	"github.com/mud-protocol/tuxp-go/pkg/radio/as32"
	"github.com/mud-protocol/tuxp-go/pkg/radio/udp"
	"github.com/mud-protocol/tuxp-go/pkg/thing"
	"github.com/mud-protocol/tuxp-go/pkg/transport"
)

// Rotation limits of log files.
const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
)

// radioDriver is what the node needs from a radio driver.
type radioDriver interface {
	transport.Radio
	io.Closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// setupLogging configures the standard logger and returns the slog logger
// handed to the runtime. slog's default handler writes through the
// standard logger, so redirecting log output redirects both.
func setupLogging(level, file string) (*slog.Logger, io.Closer, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}

	log.SetFlags(log.Ltime | log.Lmicroseconds)

	var closer io.Closer = nopCloser{}
	if file != "" {
		lj := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
		}
		log.SetOutput(lj)
		closer = lj
	}

	slog.SetLogLoggerLevel(lvl)
	return slog.Default(), closer, nil
}

// openProtocolLog returns the protocol logger for path, or nil when path
// is empty. At debug level events are also written to the slog logger.
func openProtocolLog(path string, logger *slog.Logger) (tuxplog.Logger, io.Closer) {
	var loggers []tuxplog.Logger
	var closer io.Closer = nopCloser{}

	if path != "" {
		fl := tuxplog.NewRotatingFileLogger(path, logMaxSizeMB, logMaxBackups)
		loggers = append(loggers, fl)
		closer = fl
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		loggers = append(loggers, tuxplog.NewSlogAdapter(logger))
	}

	switch len(loggers) {
	case 0:
		return nil, closer
	case 1:
		return loggers[0], closer
	default:
		return tuxplog.NewMultiLogger(loggers...), closer
	}
}

// openRadio opens the configured radio driver. A UDP radio without a hub
// address browses for the hub of cfg.Network.
func openRadio(ctx context.Context, cfg Config, logger *slog.Logger) (radioDriver, error) {
	switch cfg.Radio {
	case RadioAS32:
		r, err := as32.Open(as32.Config{
			PortName:         cfg.SerialPort,
			BaudRate:         cfg.BaudRate,
			Settle:           cfg.RadioSettle,
			ExternalModePins: cfg.ExternalPins,
			Logger:           logger,
		})
		if err != nil {
			return nil, err
		}
		return r, nil

	case RadioUDP:
		hub := cfg.Hub
		if hub == "" {
			found, err := findHub(ctx, cfg.Network)
			if err != nil {
				return nil, err
			}
			hub = found
			log.Printf("Found hub of network %q at %s", cfg.Network, hub)
		}
		r, err := udp.Dial(udp.Config{
			HubAddr: hub,
			Address: commissioning.DefaultAddress,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		return r, nil

	default:
		return nil, fmt.Errorf("unknown radio: %s", cfg.Radio)
	}
}

// findHub browses mDNS for the hub of network.
func findHub(ctx context.Context, network string) (string, error) {
	browser, err := discovery.NewMDNSBrowser(discovery.DefaultBrowserConfig())
	if err != nil {
		return "", err
	}
	defer browser.Stop()

	svc, err := browser.FindHub(ctx, network)
	if err != nil {
		return "", fmt.Errorf("find hub of network %q: %w", network, err)
	}
	return svc.UDPAddr()
}

// openStore opens the commissioning store.
func openStore(cfg Config) (thing.Persistence, error) {
	switch cfg.Store {
	case StoreEEPROM:
		store, err := persistence.OpenEEPROMFile(cfg.StatePath, persistence.DefaultEEPROMSize)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StoreJSON:
		return persistence.NewJSONStore(cfg.StatePath), nil
	default:
		return nil, fmt.Errorf("unknown store: %s", cfg.Store)
	}
}

// newIdentity builds the identity of the node. Without a code or code file
// the code is provisioned next to the state file.
func newIdentity(cfg Config) (*identity.Generator, string, error) {
	var source identity.CodeSource
	switch {
	case cfg.RegistrationCode != "":
		source = identity.StaticCode(cfg.RegistrationCode)
	default:
		path := cfg.CodeFile
		if path == "" {
			path = cfg.StatePath + ".code"
		}
		if _, err := identity.ProvisionFileCode(path); err != nil {
			return nil, "", fmt.Errorf("provision registration code: %w", err)
		}
		source = identity.FileCode(path)
	}

	gen, err := identity.NewGenerator(cfg.Model, source)
	if err != nil {
		return nil, "", err
	}
	code, err := gen.RegistrationCode()
	if err != nil {
		return nil, "", err
	}
	return gen, code, nil
}
