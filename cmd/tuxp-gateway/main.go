// Command tuxp-gateway runs a TUXP gateway on the emulated UDP radio.
//
// It serves the UDP hub radios attach to, advertises it over mDNS, answers
// the DAC exchange of new things and prints what commissioned things
// notify and report. The allocation table survives restarts.
//
// Usage:
//
//	tuxp-gateway [flags]
//
// Flags:
//
//	-config string        YAML configuration file
//	-listen string        Address the UDP hub listens on (default ":41794")
//	-hub string           Join an existing hub at host:port instead of running one
//	-network string       Radio network name advertised over mDNS (default "default")
//	-auto-configure       Configure things as soon as they acknowledge an allocation (default true)
//	-codes string         YAML file mapping thing ids to registration codes
//	-state string         Path of the allocation table (default "gateway-state.json")
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  Write protocol events to a .tlog file
//	-interactive          Start the interactive console
//
// Examples:
//
//	# Gateway for the lab network with a console
//	tuxp-gateway -network lab -interactive
//
//	# Approve things by hand and only accept known codes
//	tuxp-gateway -auto-configure=false -codes codes.yaml -interactive
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mud-protocol/tuxp-go/cmd/tuxp-gateway/interactive"
	"github.com/mud-protocol/tuxp-go/internal/gatewaysim"
	"github.com/mud-protocol/tuxp-go/pkg/persistence"
)

func main() {
	config, err := parseConfig(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, logCloser, err := setupLogging(config.LogLevel, config.LogFile)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	defer logCloser.Close()

	codes, err := loadCodes(config.CodesFile)
	if err != nil {
		log.Fatalf("Failed to load registration codes: %v", err)
	}

	log.Println("TUXP Gateway")
	log.Println("============")
	log.Printf("Network: %s", config.Network)
	log.Printf("Channel: 0x%02x", config.Channel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hubAddr := config.Hub
	if hubAddr == "" {
		hub, addr, err := startHub(ctx, config.Listen, logger)
		if err != nil {
			log.Fatalf("Failed to start hub: %v", err)
		}
		defer hub.Close()
		hubAddr = addr
		log.Printf("Hub listening on port %d", hub.Port())

		if config.Advertise {
			adv, err := advertiseHub(ctx, config.Network, byte(config.Channel), hub.Port())
			if err != nil {
				log.Printf("Warning: mDNS advertisement failed: %v", err)
			} else {
				defer adv.StopAll()
				log.Printf("Advertising network %q over mDNS", config.Network)
			}
		}
	}

	protocolLogger, protocolCloser := openProtocolLog(config.ProtocolLog)
	defer protocolCloser.Close()

	gwConfig := gatewaysim.DefaultConfig()
	gwConfig.Channel = byte(config.Channel)
	gwConfig.UplinkChannelBegin = int(config.Channel)
	gwConfig.UplinkChannelEnd = int(config.Channel)
	gwConfig.FirstLanID = byte(config.FirstLanID)
	gwConfig.AutoConfigure = config.AutoConfigure
	gwConfig.RegistrationCodes = codes
	gwConfig.Logger = logger
	gwConfig.ProtocolLogger = protocolLogger

	link, err := openLink(hubAddr, gwConfig.UplinkAddresses(), logger)
	if err != nil {
		log.Fatalf("Failed to open gateway link: %v", err)
	}
	defer link.Close()
	gwConfig.Link = link

	var store *persistence.GatewayStateStore
	if config.StatePath != "" {
		store = persistence.NewGatewayStateStore(config.StatePath)
	}
	srv, err := newServer(gwConfig, store, config.PollInterval)
	if err != nil {
		log.Fatalf("Failed to create gateway: %v", err)
	}

	go srv.Run(ctx)

	if config.Interactive {
		console, err := interactive.New(srv)
		if err != nil {
			log.Fatalf("Failed to start console: %v", err)
		}
		if config.LogFile == "" {
			log.SetOutput(console.Stdout())
		}
		go console.Run(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	cancel()
	if err := srv.Save(); err != nil && !errors.Is(err, errNoStateFile) {
		log.Printf("Failed to save allocation table: %v", err)
	}
	log.Println("Goodbye!")
}
