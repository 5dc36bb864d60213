// Command dispense-worker runs the Temporal worker process hosting the Dispensing Orchestrator
// (C7) workflow and its activities, grounded on the teacher's cmd/cart_worker.go entrypoint but
// hand-wired rather than built through its wire-generated DI container (see DESIGN.md).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/config"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/dispense"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/eventbus"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/infrastructure/cloud/mqttclient"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/logger"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/shutdown"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/telemetry"
)

var configFile string

func main() {
	root := &cobra.Command{
		Use:   "dispense-worker",
		Short: "Temporal worker hosting the dispensing orchestrator workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Dev)
	if err != nil {
		return err
	}

	if err := telemetry.Init(cfg.Sentry.DSN, "dispense-worker"); err != nil {
		log.Warn("sentry init failed", "error", err)
	}
	defer telemetry.Flush()
	defer telemetry.RecoverPanic("dispense-worker")

	temporalClient, err := client.Dial(client.Options{HostPort: cfg.Temporal.HostPort})
	if err != nil {
		return fmt.Errorf("dial temporal: %w", err)
	}
	defer temporalClient.Close()

	hw := mqttclient.New(mqttclient.Config{
		Endpoint:        cfg.Cloud.MQTT.Endpoint,
		Port:            cfg.Cloud.MQTT.Port,
		CACertificate:   cfg.Cloud.MQTT.CACertificate,
		Certificate:     cfg.Cloud.MQTT.Certificate,
		PrivateKey:      cfg.Cloud.MQTT.PrivateKey,
		DeviceID:        cfg.Cloud.MQTT.DeviceID,
		KeepAlive:       mqttclient.DefaultKeepAlive,
		MaxMessageSize:  mqttclient.DefaultMaxMessageSize,
		ConnectAttempts: cfg.Cloud.MQTT.ConnectAttempts,
		ConnectTimeout:  cfg.Cloud.MQTT.ConnectTimeout,
		DispenseTopic:   cfg.Cloud.MQTT.DispenseTopic,
	}, log)
	if err := hw.Start(); err != nil {
		return fmt.Errorf("start hardware client: %w", err)
	}
	defer hw.Stop()

	// The worker process keeps its own bus purely to feed the ReportStatus/ReportPurchaseFinished
	// activities' status reporting; it never runs the cart engine or planogram synchronizer, so nothing else
	// subscribes to it here.
	bus := eventbus.New(log.Named("eventbus"))
	bus.Start()
	defer bus.Stop()

	activities := dispense.NewActivities(hw, bus)

	if _, err := dispense.NewWorker(temporalClient, activities, log); err != nil {
		return fmt.Errorf("start dispense worker: %w", err)
	}

	sig := shutdown.Wait()
	log.Info("shutdown signal received", "signal", sig.String())
	os.Exit(shutdown.GracefulExitCode)
	return nil
}
