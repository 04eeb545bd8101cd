package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/DevHoji/smart-Delivery-sub001/config"
	"github.com/DevHoji/smart-Delivery-sub001/modules/api"
	"github.com/DevHoji/smart-Delivery-sub001/modules/auth"
	"github.com/DevHoji/smart-Delivery-sub001/modules/realtime"
	"github.com/DevHoji/smart-Delivery-sub001/modules/store"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.Println("=== Smart Delivery - Real-time Delivery Rooms ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel := mono.LogLevelInfo
	switch strings.ToLower(cfg.Server.LogLevel) {
	case "debug":
		logLevel = mono.LogLevelDebug
	case "warn", "warning":
		logLevel = mono.LogLevelWarn
	case "error":
		logLevel = mono.LogLevelError
	}
	logFormat := mono.LogFormatText
	if strings.EqualFold(cfg.Server.LogFormat, "json") {
		logFormat = mono.LogFormatJSON
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		mono.WithLogLevel(logLevel),
		mono.WithLogFormat(logFormat),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	backend := newFanoutBackend(cfg, logger)

	// Create modules
	storeModule := store.NewModule(cfg.Store.DBPath, cfg.Store.Debug, logger)
	authModule := auth.NewModule(auth.JWTConfig{
		SecretKey: cfg.Auth.JWTSecret,
		TokenTTL:  cfg.Auth.TokenTTL,
		Issuer:    cfg.Auth.Issuer,
	})
	realtimeModule := realtime.NewModule(backend, logger, realtime.Options{
		EchoToSender:      cfg.Realtime.EchoToSender,
		RequireMembership: cfg.Realtime.RequireMembership,
	})
	apiModule := api.NewModule(cfg.Server.Port, api.TransportConfig{
		SendBuffer:     cfg.Transport.SendBuffer,
		WriteWait:      cfg.Transport.WriteWait,
		PongWait:       cfg.Transport.PongWait,
		MaxMessageSize: cfg.Transport.MaxMessageSize,
	}, logger)

	// The hub is shared in-process, not through a ServiceContainer.
	apiModule.SetHub(realtimeModule.Hub())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - store: Core domain (GORM + SQLite, emits status events)
	// - auth: Token verification services
	// - realtime: Delivery rooms (depends on store, consumes status events)
	// - api: Driving adapter (Fiber HTTP/WebSocket, depends on store and auth)
	app.Register(storeModule)    // Durable store + event emitter
	app.Register(authModule)     // JWT services
	app.Register(realtimeModule) // Room hub + event consumer
	app.Register(apiModule)      // HTTP/WebSocket API

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// newFanoutBackend selects how routed frames reach room members.
func newFanoutBackend(cfg *config.Config, logger types.Logger) realtime.Backend {
	if cfg.Fanout.Backend != config.BackendRedis {
		return realtime.NewLocalBackend()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Fanout.RedisAddr,
		Password: cfg.Fanout.RedisPassword,
		DB:       cfg.Fanout.RedisDB,
	})
	return realtime.NewRedisBackend(client, cfg.Fanout.ChannelPrefix, logger)
}

func printStartupInfo(cfg *config.Config) {
	port := cfg.Server.Port

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Printf("  - Store: GORM + SQLite (%s)", cfg.Store.DBPath)
	log.Printf("  - Fan-out backend: %s", cfg.Fanout.Backend)
	if cfg.Fanout.Backend == config.BackendRedis {
		log.Printf("  - Redis: %s (channels %s*)", cfg.Fanout.RedisAddr, cfg.Fanout.ChannelPrefix)
	}
	log.Println("")
	log.Println("Event-Driven Status Updates:")
	log.Println("  - DeliveryStatusChanged events -> realtime module -> delivery room")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", port)
	log.Println("  GET    /health                            - Health check")
	log.Println("  GET    /stats                             - Room statistics")
	log.Println("  POST   /api/v1/deliveries                 - Create a delivery")
	log.Println("  GET    /api/v1/deliveries/:id             - Get a delivery")
	log.Println("  PATCH  /api/v1/deliveries/:id/status      - Change status")
	log.Println("  PUT    /api/v1/deliveries/:id/agent       - Assign an agent")
	log.Println("  POST   /api/v1/deliveries/:id/messages    - Persist a chat message")
	log.Println("  GET    /api/v1/deliveries/:id/messages    - Chat history")
	log.Println("  POST   /api/v1/deliveries/:id/locations   - Record a location")
	log.Println("  GET    /api/v1/deliveries/:id/locations   - Location trail (newest first)")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%d/ws?token=<jwt>):", port)
	log.Println("  Client events: join-delivery, leave-delivery, location-update, message, status-update")
	log.Println("  Server events: location-update, message, status-update, joined, left, error")
	log.Println("")
	log.Println("Tokens: go run ./cmd/tokengen -user <id> -role customer|agent|admin")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
