package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"citywatch/config"
	"citywatch/database"
	"citywatch/handlers"
	"citywatch/middleware"
	"citywatch/rabbitmq"
	"citywatch/service"
	"citywatch/wsfeed"

	"github.com/apex/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warnf(".env file not found, using system environment variables")
	}

	cfg := config.Load()

	if cfg.LogLevel == "debug" {
		log.SetLevel(log.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	var publisher service.Publisher
	if cfg.AMQPURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPReportKey)
		if err != nil {
			log.Fatalf("Failed to create RabbitMQ publisher: %v", err)
		}
		defer p.Close()
		publisher = p
	} else {
		log.Warnf("AMQP_URL not set, broker publishing disabled")
	}

	hub := wsfeed.NewHub()
	go hub.Run()
	defer hub.Stop()

	svc := service.NewReportService(db, publisher, hub, cfg.AMQPAnnounceKey)

	router := setupRouter(cfg, svc, hub)

	srv := &http.Server{
		Addr:    cfg.Host + ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Infof("Starting CityWatch server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infof("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Infof("Server exited")
}

func setupRouter(cfg *config.Config, svc *service.ReportService, hub *wsfeed.Hub) *gin.Engine {
	h := handlers.NewHandlers(svc)
	wsHandler := handlers.NewWebSocketHandler(hub)

	verifier := buildVerifier(cfg)

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Public surface: liveness and citizen submission. Submitter identity is
	// not verified on citizen reports.
	router.GET("/health", h.Health)
	router.POST("/api/citizen/reports", h.CreateReport)

	protected := router.Group("/")
	protected.Use(middleware.AuthMiddleware(verifier))
	{
		protected.GET("/api/admin/reports", h.ListReports)
		protected.GET("/api/admin/reports/:id", h.GetReport)
		protected.PATCH("/api/admin/reports/:id", h.UpdateReportStatus)
		protected.GET("/api/admin/stats", h.GetStats)
		protected.POST("/api/announcements", h.CreateAnnouncement)
		protected.GET("/ws/reports", wsHandler.Feed)
	}

	return router
}

func buildVerifier(cfg *config.Config) middleware.TokenVerifier {
	if cfg.JWTSecret != "" {
		return middleware.NewJWTVerifier(cfg.JWTSecret)
	}
	log.Warnf("JWT_SECRET not set, falling back to development token verifier")
	return middleware.NewStaticVerifier(map[string]string{
		"dev-token": "dev-admin",
	})
}
