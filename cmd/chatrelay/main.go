package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chatrelay/internal/api"
	"chatrelay/internal/api/handlers"
	"chatrelay/internal/api/middleware"
	"chatrelay/internal/auth"
	"chatrelay/internal/config"
	"chatrelay/internal/hub"
	"chatrelay/internal/metrics"
	"chatrelay/internal/store"
)

var (
	Version = "1.0.0-dev"
	Commit  = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("chatrelay %s (%s)\n", Version, Commit)
		return
	}

	log.Printf("chatrelay %s (%s)", Version, Commit)

	cfg := config.Load()
	if cfg.UsingDevSecret() {
		log.Printf("WARNING: JWT_SECRET not set, using development signing key")
	}

	hubMetrics := metrics.NewHubMetrics()
	log.Printf("prometheus metrics initialized (instance: %s)", metrics.GetInstanceLabel())

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	bcryptPool := auth.NewBcryptPool(auth.PoolConfig{
		Workers:        cfg.BcryptWorkers,
		QueueSize:      cfg.BcryptQueue,
		DefaultTimeout: cfg.BcryptTimeout,
		Cost:           cfg.BcryptCost,
	})
	auth.SetGlobalPool(bcryptPool)
	defer bcryptPool.Close()
	log.Printf("bcrypt worker pool initialized: %d workers, queue size %d",
		bcryptPool.Stats().Workers, bcryptPool.Stats().QueueSize)

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenExpiry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := hub.New(st, hubMetrics)
	go h.Run(ctx)

	app := fiber.New(fiber.Config{
		AppName:                 "chatrelay",
		DisableStartupMessage:   true,
		BodyLimit:               100 * 1024 * 1024,
		ReadTimeout:             30 * time.Second,
		WriteTimeout:            30 * time.Second,
		EnableTrustedProxyCheck: true,
		ProxyHeader:             "X-Forwarded-For",
	})

	app.Use(recover.New())
	app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "SAMEORIGIN",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginEmbedderPolicy: "require-corp",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "same-origin",
		PermissionPolicy:          "camera=(), microphone=(), geolocation=()",
	}))
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if cfg.Debug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${ip} ${ua} ${error}\n"
	}
	app.Use(logger.New(logger.Config{
		Format:     logFormat,
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowCredentials: false,
		MaxAge:           86400,
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	log.Printf("prometheus metrics endpoint: /metrics")

	hnd := handlers.NewHandlers(st, jwtService, h)
	m := middleware.NewMiddleware(jwtService)
	api.SetupRoutes(app, hnd, m)

	shutdownComplete := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Printf("received %v signal, initiating graceful shutdown...", sig)

		drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer drainCancel()

		log.Println("stopping HTTP server...")
		if err := app.ShutdownWithContext(drainCtx); err != nil {
			log.Printf("HTTP shutdown error: %v", err)
		}

		log.Println("stopping background services...")
		cancel()

		close(shutdownComplete)
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	go func() {
		log.Printf("listening on %s", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownComplete
	log.Println("graceful shutdown complete")
}
