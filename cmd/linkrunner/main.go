package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/argus-gcs/linkrunner/internal/config"
	"github.com/argus-gcs/linkrunner/internal/httpapi"
	"github.com/argus-gcs/linkrunner/internal/mavlinkio"
	"github.com/argus-gcs/linkrunner/internal/server"
)

func main() {
	cfg := config.Load()

	srv := server.New(cfg)
	deps := srv.GetDependencies()
	logger := deps.GetLogger()

	handlers := httpapi.New(deps.GetVehicle(), logger)
	for path, handler := range handlers.Routes() {
		srv.RegisterHandler(path, handler)
	}

	go connectVehicle(deps, cfg)
	go handleShutdown(deps, logger)

	if err := srv.Start(); err != nil {
		logger.WithError(err).Fatal("linkrunner: diagnostics server exited")
	}
}

func connectVehicle(deps *server.Dependencies, cfg *config.Config) {
	logger := deps.GetLogger()
	transport, udpAddr, serialDevice, serialBaud := cfg.MAVLink.ResolveEndpoint()
	endpoint := mavlinkio.EndpointConfig{Baud: serialBaud}
	switch transport {
	case "serial":
		endpoint.Kind = mavlinkio.EndpointSerialPort
		endpoint.Device = serialDevice
	default:
		endpoint.Kind = mavlinkio.EndpointUDPBind
		endpoint.Address = udpAddr
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := deps.GetVehicle().Connect(ctx, endpoint); err != nil {
		logger.WithError(err).Error("linkrunner: initial vehicle connect failed")
	}
}

func handleShutdown(deps *server.Dependencies, logger interface{ Info(args ...any) }) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("linkrunner: shutting down")
	deps.GetVehicle().Disconnect()
	os.Exit(0)
}
