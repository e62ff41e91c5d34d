package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/paybridge/paybridge/gateway"
	"github.com/paybridge/paybridge/handler"
	"github.com/paybridge/paybridge/infra/analytics"
	"github.com/paybridge/paybridge/infra/config"
	"github.com/paybridge/paybridge/infra/logger"
	"github.com/paybridge/paybridge/infra/middle"
	"github.com/paybridge/paybridge/infra/opensearch"
	"github.com/paybridge/paybridge/infra/response"
	"github.com/paybridge/paybridge/infra/validate"
	"github.com/paybridge/paybridge/provider"
	"github.com/paybridge/paybridge/provider/paypal"
	"github.com/paybridge/paybridge/router"
	v1 "github.com/paybridge/paybridge/router/v1"
	"github.com/paybridge/paybridge/webhook"
)

var (
	PORT             string
	openSearchLogger *opensearch.Logger
)

func init() {
	// Load Env
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using process environment")
	}
	// init conf
	_ = config.App()
	validate.CustomValidate()

	PORT = config.GetEnv("APP_PORT", "9999")

	// Initialize OpenSearch client and logger
	cfg := config.GetAppConfig()
	if cfg.EnableLogging {
		osClient, err := opensearch.NewClient(cfg)
		if err != nil {
			log.Printf("Failed to initialize OpenSearch client: %v", err)
			log.Println("Continuing without OpenSearch logging...")
		} else {
			openSearchLogger = opensearch.NewLogger(osClient)
			log.Println("OpenSearch logging initialized successfully")
		}
	} else {
		log.Println("OpenSearch logging is disabled")
	}
}

func main() {
	logger.InitGlobalLogger(openSearchLogger)

	appCfg := config.GetAppConfig()
	gatewayCfg := config.GetGatewayConfig()
	webhookCfg := config.GetWebhookConfig()

	// Provider credentials: persisted store first, env overrides on top
	storage, err := config.NewSQLiteStorage(appCfg.ConfigDBPath)
	if err != nil {
		log.Printf("Failed to open config storage (%v), using memory-only provider configs", err)
		storage = nil
	} else {
		defer storage.Close()
	}

	providerConfig := config.NewProviderConfig(storage)
	if err := providerConfig.LoadFromStorage(); err != nil {
		log.Printf("Failed to load stored provider configs: %v", err)
	}
	providerConfig.LoadFromEnv()

	registry := provider.DefaultRegistry
	for _, providerName := range providerConfig.GetAvailableProviders() {
		providerCfg, err := providerConfig.GetConfig(providerName)
		if err != nil {
			log.Printf("Failed to get configuration for provider %s: %v", providerName, err)
			continue
		}
		if err := registry.Configure(providerName, providerCfg); err != nil {
			log.Printf("Failed to configure provider %s: %v", providerName, err)
			continue
		}
		log.Printf("Configured payment provider: %s", providerName)
	}
	if len(registry.Names()) == 0 {
		log.Println("No payment providers configured!")
	}

	collector := analytics.NewLogCollector(openSearchLogger)

	// Outbound path: health table, routing rules, failover, orchestrator
	healthStore := gateway.NewHealthStore()

	rules, err := gateway.LoadRoutingRules(gatewayCfg)
	if err != nil {
		log.Fatalf("Routing rules error: %v", err)
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paymentRouter := gateway.NewRouter(registry, rules, healthStore, gatewayCfg.EnableLoadBalancing)
	failover := gateway.NewFailoverCoordinator(registry, paymentRouter, healthStore, collector, gatewayCfg, shutdownCtx)
	orchestrator := gateway.NewOrchestrator(registry, failover, collector)

	monitor := gateway.NewHealthMonitor(registry, healthStore, collector, gatewayCfg.HealthCheckInterval)
	go monitor.Start(shutdownCtx)
	defer monitor.Stop()

	// Inbound path: verification pipeline and dispatcher
	var verifierOpts []webhook.VerifierOption
	if paypalCfg, err := providerConfig.GetConfig("paypal"); err == nil {
		verifierOpts = append(verifierOpts, webhook.WithExternalVerifier(paypal.NewWebhookVerifier(paypalCfg["webhookId"])))
	}
	verifier := webhook.NewVerifier(providerConfig.WebhookSecrets(), webhookCfg.TimestampTolerance, webhookCfg.EnableTimestampVerification, verifierOpts...)

	var pipelineOpts []webhook.PipelineOption
	if appCfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(appCfg.RedisURL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()

		pipelineOpts = append(pipelineOpts, webhook.WithReplayStore(webhook.NewRedisReplayStore(redisClient, webhookCfg.ReplayWindow)))
		log.Println("Redis replay store enabled")
	}

	pipeline := webhook.NewPipeline(registry, verifier, webhookCfg, openSearchLogger, pipelineOpts...)
	dispatcher := webhook.NewDispatcher(collector)
	registerWebhookActions(dispatcher)

	// Chi Define Routes
	r := chi.NewRouter()

	// Basic Middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(60 * time.Second))

	// Security Middleware
	rateLimiter := middle.NewRateLimiter()
	defer rateLimiter.Stop()
	r.Use(middle.SecurityHeadersMiddleware())
	r.Use(middle.RateLimitMiddleware(rateLimiter))
	r.Use(middle.RequestValidationMiddleware())
	r.Use(middle.PanicRecoveryMiddleware())
	r.Use(middle.RequestLoggingMiddleware())

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Origin", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "Content-Length", "Access-Control-Allow-Origin"},
		AllowCredentials: true,
		MaxAge:           300, // Preflight cache time (second)
	}))

	// Health check endpoint
	healthHandler := handler.NewHealthHandler(registry, healthStore)
	r.Get("/health", healthHandler.Liveness)

	router.Routes(r, v1.Deps{
		Registry:     registry,
		Orchestrator: orchestrator,
		Health:       healthStore,
		Pipeline:     pipeline,
		Dispatcher:   dispatcher,
		Validate:     config.App().Validator,
	})

	// Not Found
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusNotFound, response.Response{Code: http.StatusNotFound, Success: false, Message: "Not Found"})
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", PORT),
		Handler:           r,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 60 * time.Second,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal(err.Error())
		}
	}()

	log.Println("API is running on", PORT)

	// Block until a signal is received
	<-shutdownCtx.Done()

	log.Println("Shutting down gracefully...")

	shutdownTimeout, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

// registerWebhookActions wires the default reactions to verified webhook
// events. The log-only actions stand in for downstream order/ledger updates.
func registerWebhookActions(dispatcher *webhook.Dispatcher) {
	logAction := func(name, message string) webhook.Action {
		return webhook.ActionFunc{
			ActionName: name,
			Fn: func(ctx context.Context, event *webhook.Event) error {
				logger.Info(message, logger.LogContext{
					Provider: event.Provider,
					Fields: map[string]any{
						"event_id":   event.ID,
						"payment_id": event.PaymentID,
						"amount":     event.Amount,
						"currency":   event.Currency,
					},
				})
				return nil
			},
		}
	}

	dispatcher.On(provider.EventPaymentSucceeded, logAction("record-payment-success", "payment confirmed by provider"))
	dispatcher.On(provider.EventPaymentFailed, logAction("record-payment-failure", "payment failed at provider"))
	dispatcher.On(provider.EventPaymentRefunded, logAction("record-refund", "payment refunded at provider"))
	dispatcher.On(provider.EventSubscriptionCreated, logAction("record-subscription", "subscription confirmed by provider"))
	dispatcher.On(provider.EventSubscriptionCancelled, logAction("record-subscription-cancel", "subscription cancelled at provider"))
}
