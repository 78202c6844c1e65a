package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"strconv"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mud-protocol/tuxp-go/pkg/commissioning"
	"github.com/mud-protocol/tuxp-go/pkg/discovery"
	tuxplog "github.com/mud-protocol/tuxp-go/pkg/log"
	"github.com/mud-protocol/tuxp-go/pkg/radio/udp"
	"github.com/mud-protocol/tuxp-go/pkg/transport"
)

// Rotation limits of log files.
const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
)

// setupLogging configures the standard logger and returns the slog logger
// handed to the gateway. slog's default handler writes through the
// standard logger.
func setupLogging(level, file string) (*slog.Logger, io.Closer, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}

	log.SetFlags(log.Ltime | log.Lmicroseconds)
	slog.SetLogLoggerLevel(lvl)

	if file == "" {
		return slog.Default(), io.NopCloser(nil), nil
	}
	lj := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
	}
	log.SetOutput(lj)
	return slog.Default(), lj, nil
}

// openProtocolLog returns a rotating protocol logger for path, or nil when
// path is empty.
func openProtocolLog(path string) (tuxplog.Logger, io.Closer) {
	if path == "" {
		return nil, io.NopCloser(nil)
	}
	fl := tuxplog.NewRotatingFileLogger(path, logMaxSizeMB, logMaxBackups)
	return fl, fl
}

// startHub opens the UDP hub and serves it until ctx is canceled. It
// returns the address the gateway link dials.
func startHub(ctx context.Context, listen string, logger *slog.Logger) (*udp.Hub, string, error) {
	hub, err := udp.ListenHub(listen, logger)
	if err != nil {
		return nil, "", fmt.Errorf("listen hub on %s: %w", listen, err)
	}
	go func() {
		if err := hub.Serve(ctx); err != nil {
			log.Printf("Hub stopped: %v", err)
		}
	}()

	host := "127.0.0.1"
	if ip := hub.Addr().IP; ip != nil && !ip.IsUnspecified() {
		host = ip.String()
	}
	return hub, net.JoinHostPort(host, strconv.Itoa(hub.Port())), nil
}

// advertiseHub announces the hub of network over mDNS.
func advertiseHub(ctx context.Context, network string, channel byte, port int) (*discovery.MDNSAdvertiser, error) {
	adv, err := discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{})
	if err != nil {
		return nil, err
	}
	err = adv.AdvertiseHub(ctx, &discovery.HubInfo{
		Network: network,
		Channel: channel,
		Port:    uint16(port),
	})
	if err != nil {
		return nil, err
	}
	return adv, nil
}

// openLink dials the hub as the DAC service and joins every uplink
// address.
func openLink(hubAddr string, uplinks []transport.Address, logger *slog.Logger) (*udp.Radio, error) {
	link, err := udp.Dial(udp.Config{
		HubAddr: hubAddr,
		Address: commissioning.ServiceAddress,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	if _, err := link.Initialize(); err != nil {
		link.Close()
		return nil, err
	}
	if err := link.Listen(uplinks...); err != nil {
		link.Close()
		return nil, err
	}
	return link, nil
}
