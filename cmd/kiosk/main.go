// Command kiosk runs the kiosk control-plane service: the event bus, the planogram
// synchronizer (C4), the cart engine (C5), the machine FSM (C6), the telemetry forwarder (C8),
// and the REST/WebSocket/admin surfaces, wired by hand rather than through the teacher's
// google/wire codegen (see DESIGN.md's "dropped from the teacher's pattern" entry).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/cartengine"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/config"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/dispense"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/event"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/eventbus"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/infrastructure/cloud/httpclient"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/infrastructure/cloud/mqttclient"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/infrastructure/repository/postgres"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/machine"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/logger"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/metrics"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/shutdown"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/telemetry"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/planogram"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/ports"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/rest"
	telemetryforwarder "github.com/dmatiushkin73/my-kiosk-backend/internal/telemetry"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/ws"
)

// hardware-originated topics that don't fit the ports.InboundTopic cloud-sync table: readiness
// and dispense-result both arrive out of band from the dispense orchestrator's own signal path.
const (
	topicHWReady        ports.InboundTopic = "hardware/ready"
	topicDispenseResult ports.InboundTopic = "hardware/dispense/result"
)

var configFile string

func main() {
	root := &cobra.Command{
		Use:   "kiosk",
		Short: "Self-service vending kiosk control plane",
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to config file")

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Dev)
			if err != nil {
				return err
			}
			ctx := context.Background()
			store, err := postgres.New(ctx, cfg.DB.DSN, log)
			if err != nil {
				return err
			}
			log.Info("migrations applied")
			store.Close()
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the kiosk service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Dev)
	if err != nil {
		return err
	}

	if err := telemetry.Init(cfg.Sentry.DSN, "kiosk"); err != nil {
		log.Warn("sentry init failed", "error", err)
	}
	defer telemetry.Flush()

	ctx := context.Background()

	repo, err := postgres.New(ctx, cfg.DB.DSN, log)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	defer repo.Close()

	endpoints := make(map[string]httpclient.Endpoint, len(cfg.Cloud.Endpoints))
	for name, ep := range cfg.Cloud.Endpoints {
		endpoints[name] = httpclient.Endpoint{URL: ep.URL, APIKey: ep.APIKey}
	}
	cloud := httpclient.New(httpclient.Config{
		Endpoints: endpoints,
		DeviceID:  cfg.Cloud.MQTT.DeviceID,
		Timeout:   cfg.HTTP.Timeout,
	}, log)

	iot := mqttclient.New(mqttclient.Config{
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
	if err := iot.Start(); err != nil {
		return fmt.Errorf("start iot client: %w", err)
	}
	defer iot.Stop()

	bus := eventbus.New(log.Named("eventbus"))
	bus.Start()
	defer bus.Stop()

	sync, err := planogram.New(log, bus, cloud, iot, repo, planogram.Config{
		LocalImageURLPrefix: "/images/",
		BrandInfoFilename:   "brand_info.json",
		UIModelFilename:     "ui_model.json",
		DataDir:             "./data",
		ImageDir:            "./data/images",
	})
	if err != nil {
		return fmt.Errorf("build planogram synchronizer: %w", err)
	}
	if err := sync.Start(ctx); err != nil {
		return fmt.Errorf("start planogram synchronizer: %w", err)
	}
	defer sync.Stop()

	var redisAddrs []string
	if cfg.Cache.Redis.Address != "" {
		redisAddrs = []string{cfg.Cache.Redis.Address}
	}
	remoteCache, err := planogram.NewRemoteCache(redisAddrs)
	if err != nil {
		return fmt.Errorf("build remote cache: %w", err)
	}
	sync.SetRemoteCache(remoteCache)

	temporalClient, err := client.Dial(client.Options{HostPort: cfg.Temporal.HostPort})
	if err != nil {
		return fmt.Errorf("dial temporal: %w", err)
	}
	defer temporalClient.Close()

	dispenser := dispense.NewDispenser(temporalClient, log)

	// The dispense worker is colocated in this process by default so its activities can post
	// DISPENSING_STATUS/PURCHASE_FINISHED directly onto this bus (see DESIGN.md's "process
	// topology simplification"). cmd/dispense-worker exists as a standalone alternative for
	// operators who want it on its own OS process.
	dispenseActivities := dispense.NewActivities(iot, bus)
	if _, err := dispense.NewWorker(temporalClient, dispenseActivities, log); err != nil {
		return fmt.Errorf("start colocated dispense worker: %w", err)
	}

	engine := cartengine.New(log, bus, cloud, iot, repo, dispenser, cartengine.Config{
		ExpirationTimeout:     2 * time.Minute,
		PrereservationTimeout: 30 * time.Second,
		ReservationTimeout:    10 * time.Minute,
		OrderHistoryTimeout:   24 * time.Hour,
	})
	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("start cart engine: %w", err)
	}
	defer engine.Stop()

	m := machine.New(log, bus, sync)
	m.Start()
	defer m.Stop()

	if err := iot.Subscribe(topicHWReady, func([]byte) {
		bus.Post(event.Event{Type: event.TypeHWDispenserIsReady})
	}); err != nil {
		log.Warn("failed to subscribe hardware-ready topic", "error", err)
	}
	if err := iot.Subscribe(topicDispenseResult, func(payload []byte) {
		var msg struct {
			CartID   int    `json:"cartId"`
			UnitID   int    `json:"unitId"`
			Location int    `json:"location"`
			Success  bool   `json:"success"`
			Reason   string `json:"reason"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Error("malformed dispense result payload", "error", err)
			return
		}
		if err := dispenser.DeliverResult(ctx, msg.CartID, msg.UnitID, msg.Location, msg.Success, msg.Reason); err != nil {
			log.Error("failed to deliver dispense result", "cart_id", msg.CartID, "error", err)
		}
	}); err != nil {
		log.Warn("failed to subscribe dispense-result topic", "error", err)
	}

	kafkaPub, err := telemetryforwarder.NewPublisher(cfg.Kafka.Brokers, log)
	if err != nil {
		return fmt.Errorf("build telemetry publisher: %w", err)
	}
	forwarder := telemetryforwarder.New(kafkaPub, log)
	forwarder.Attach(bus)
	defer forwarder.Close()

	reg := metrics.NewRegistry(bus)

	notifier := ws.New(log, sync)
	notifier.Subscribe(bus)

	handler := rest.New(log, bus, engine, sync, m, repo, remoteCache)
	var zlog *zap.Logger
	if cfg.Dev {
		zlog, err = zap.NewDevelopment()
	} else {
		zlog, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	router := handler.Router(zlog)
	router.GET("/metrics", gin.WrapH(metrics.Handler(reg)))

	restSrv := &http.Server{Addr: cfg.RESTAddr, Handler: router}
	go func() {
		if err := restSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Critical("rest server stopped unexpectedly", "error", err)
		}
	}()
	log.Info("rest server listening", "addr", cfg.RESTAddr)

	wsMux := http.NewServeMux()
	wsMux.HandleFunc("GET /ws/{displayId}", func(w http.ResponseWriter, r *http.Request) {
		displayID, err := parseDisplayID(r.PathValue("displayId"))
		if err != nil {
			http.Error(w, "invalid display id", http.StatusBadRequest)
			return
		}
		if err := notifier.HandleUpgrade(displayID, w, r); err != nil {
			log.Warn("websocket upgrade failed", "error", err)
		}
	})
	wsSrv := &http.Server{Addr: cfg.WSAddr, Handler: wsMux}
	go func() {
		if err := wsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Critical("websocket server stopped unexpectedly", "error", err)
		}
	}()
	log.Info("websocket server listening", "addr", cfg.WSAddr)

	sig := shutdown.Wait()
	log.Info("shutdown signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = restSrv.Shutdown(shutdownCtx)
	_ = wsSrv.Shutdown(shutdownCtx)

	os.Exit(shutdown.GracefulExitCode)
	return nil
}

func parseDisplayID(s string) (int, error) {
	var id int
	_, err := fmt.Sscanf(s, "%d", &id)
	return id, err
}
