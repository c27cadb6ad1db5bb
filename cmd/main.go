package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"khanabuddy/internal/api"
	"khanabuddy/internal/auth"
	"khanabuddy/internal/catalog"
	"khanabuddy/internal/database"
	"khanabuddy/internal/events"
	"khanabuddy/internal/orders"
	"khanabuddy/internal/reconcile"
	"khanabuddy/internal/reports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"
)

var (
	port        = flag.Int("port", 8080, "API server port")
	metricsPort = flag.Int("metrics-port", 9090, "Metrics server port")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := database.InitDB(config.Database.Dialect, config.Database.DSN); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDB()

	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	db := database.GetDB()

	bus := events.NewDispatcher()
	defer bus.Close()

	inventory := catalog.NewService(db, bus)
	orderSvc := orders.NewService(db, inventory, bus)
	reportSvc := reports.NewService(db)
	authSvc := auth.NewService(db, config.Auth.Secret)

	listener := reconcile.New(inventory, bus)
	defer listener.Close()
	if err := trackActiveOrders(ctx, orderSvc, listener); err != nil {
		log.Printf("Failed to track active orders: %v", err)
	}
	bus.Subscribe(events.KindOrderCreated, func(e events.Event) {
		order, err := orderSvc.Get(context.Background(), e.OrderID)
		if err != nil {
			log.Printf("Failed to load order %d for tracking: %v", e.OrderID, err)
			return
		}
		lines := make([]reconcile.SourceLine, 0, len(order.Items))
		for _, item := range order.Items {
			lines = append(lines, reconcile.SourceLine{
				Name:      item.ItemName,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			})
		}
		listener.Track(order.ID, lines)
	})
	listener.StartPolling(ctx, time.Duration(config.Reconcile.PollIntervalSeconds)*time.Second)

	hub := api.NewHub(bus)
	defer hub.Close()

	sessions := api.NewSessionManager(inventory, bus)
	defer sessions.CloseAll()

	apiServer := api.NewServer(sessions, inventory, orderSvc, reportSvc, authSvc, listener, hub)

	go startMetricsServer(*metricsPort)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: apiServer.Router(),
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down servers...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}

		cancel()
	}()

	log.Printf("Starting API server on port %d", *port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("API server error: %v", err)
	}
}

func trackActiveOrders(ctx context.Context, orderSvc *orders.Service, listener *reconcile.Listener) error {
	active, err := orderSvc.Active(ctx)
	if err != nil {
		return err
	}
	for _, order := range active {
		lines := make([]reconcile.SourceLine, 0, len(order.Items))
		for _, item := range order.Items {
			lines = append(lines, reconcile.SourceLine{
				Name:      item.ItemName,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			})
		}
		listener.Track(order.ID, lines)
	}
	return nil
}

func startMetricsServer(port int) {
	metricsRouter := gin.Default()
	metricsRouter.GET("/metrics", gin.WrapH(promhttp.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	log.Printf("Starting metrics server on port %d", port)
	if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("Metrics server error: %v", err)
	}
}

// Config represents the application configuration
type Config struct {
	Database struct {
		Dialect string `yaml:"dialect"`
		DSN     string `yaml:"dsn"`
	} `yaml:"database"`
	Auth struct {
		Secret string `yaml:"secret"`
	} `yaml:"auth"`
	Reconcile struct {
		PollIntervalSeconds int `yaml:"poll_interval_seconds"`
	} `yaml:"reconcile"`
	LogLevel string `yaml:"log_level"`
}

func loadConfig(path string) (*Config, error) {
	config := &Config{}
	config.Database.Dialect = "sqlite3"
	config.Database.DSN = "khanabuddy.db"
	config.Auth.Secret = "khanabuddy_secret_key"
	config.Reconcile.PollIntervalSeconds = 30

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Config file %s not found, using defaults", path)
			return config, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return config, nil
}
