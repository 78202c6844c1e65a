// Command tuxp-thing runs a TUXP radio node.
//
// The node walks the DAC exchange with the gateway until it is configured,
// then answers executions and reports its uptime. It runs either on an
// AS32-TTL-100 module attached to a serial port or on the emulated UDP
// radio of tuxp-gateway.
//
// Usage:
//
//	tuxp-thing [flags]
//
// Flags:
//
//	-config string        YAML configuration file
//	-radio string         Radio driver: udp, as32 (default "udp")
//	-hub string           UDP hub host:port (browsed over mDNS if empty)
//	-network string       Radio network name used to find the hub (default "default")
//	-serial string        Serial port of the AS32 module
//	-store string         Commissioning store: json, eeprom (default "json")
//	-state string         Path of the state file or EEPROM image (default "thing-state.json")
//	-model string         Model name used as thing id prefix (default "TUXP")
//	-code string          Registration code
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  Write protocol events to a .tlog file
//	-interactive          Start the interactive console
//
// Examples:
//
//	# Join the hub of the local gateway simulator
//	tuxp-thing -network lab -interactive
//
//	# Run on real hardware with an EEPROM image
//	tuxp-thing -radio as32 -serial /dev/ttyUSB0 -store eeprom -state node.eeprom
//
//	# Everything from a config file, with a debug override
//	tuxp-thing -config node.yaml -log-level debug
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mud-protocol/tuxp-go/cmd/tuxp-thing/interactive"
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

	log.Println("TUXP Thing")
	log.Println("==========")
	log.Printf("Radio: %s", config.Radio)
	log.Printf("Store: %s (%s)", config.Store, config.StatePath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	protocolLogger, protocolCloser := openProtocolLog(config.ProtocolLog, logger)
	defer protocolCloser.Close()

	store, err := openStore(config)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	ident, code, err := newIdentity(config)
	if err != nil {
		log.Fatalf("Failed to set up identity: %v", err)
	}
	log.Printf("Registration code: %s", code)

	radio, err := openRadio(ctx, config, logger)
	if err != nil {
		log.Fatalf("Failed to open radio: %v", err)
	}
	defer radio.Close()

	n, err := newNode(nodeConfig{
		Radio:            radio,
		Store:            store,
		Identity:         ident,
		RegistrationCode: code,
		ReceiveInterval:  config.ReceiveInterval,
		TickInterval:     config.TickInterval,
		DacRetry:         config.DacRetry,
		Demo:             config.Demo,
		UptimeInterval:   config.UptimeInterval,
		Logger:           logger,
		ProtocolLogger:   protocolLogger,
	})
	if err != nil {
		log.Fatalf("Failed to create thing: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- n.Run(ctx)
	}()

	if config.Interactive {
		console, err := interactive.New(n)
		if err != nil {
			log.Fatalf("Failed to start console: %v", err)
		}
		if config.LogFile == "" {
			log.SetOutput(console.Stdout())
		}
		go console.Run(ctx, cancel)
	}

	// Wait for shutdown signal, console exit or a fatal start failure
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Printf("Thing stopped: %v", err)
		}
	}

	log.Println("Shutting down...")
	cancel()
	log.Println("Goodbye!")
}
