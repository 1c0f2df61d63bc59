package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.BridgeService/bridge"
	"gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.BridgeService/client"
	container "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Container"
)

func main() {
	ctr, err := container.NewBridgeContainer()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize container: %v", err))
	}
	defer ctr.Shutdown(context.Background())

	logger := ctr.GetLogger()
	logger.Info("Starting ESP32 Serial Bridge")

	config := ctr.GetConfig()

	apiClient := client.NewAPIClient(config.APIServiceURL)

	// Warn early if the API service is unreachable; the bridge still
	// starts, the client retries on its own.
	healthCtx, healthCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := apiClient.Health(healthCtx); err != nil {
		logger.ErrorWithError(err, "API service not reachable at startup")
	}
	healthCancel()

	svc := bridge.NewService(config, apiClient, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- svc.Run(ctx)
	}()

	logger.Info("Serial bridge running... press Ctrl+C to stop")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sig:
		logger.Info("Shutting down...")
		cancel()
		<-done
	case err := <-done:
		if err != nil && err != context.Canceled {
			logger.FatalWithError(err, "Serial bridge stopped")
		}
	}
}
