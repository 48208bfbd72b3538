package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "orderdesk/api/swagger" // swagger docs
	"orderdesk/internal/cache"
	"orderdesk/internal/config"
	"orderdesk/internal/database"
	"orderdesk/internal/gateway"
	"orderdesk/internal/handler"
	"orderdesk/internal/middleware"
	"orderdesk/internal/repository"
	"orderdesk/internal/service"
	"orderdesk/internal/websocket"
)

// @title           Order Desk API
// @version         1.0
// @description     Order aggregation, invoices, proof of delivery and planogram grids over the retail backend.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg := config.Load()
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		log.Println("JWT_SECRET not set: requests are not attributed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 3)

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		conn, err := database.NewConnection(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Database connection failed: %v", err)
		}
		db = conn
		closers = append(closers, func() error { return database.Close(conn) })
		log.Println("Connected to PostgreSQL successfully.")
	}

	var backend gateway.Backend
	switch cfg.BackendMode {
	case config.BackendLocal:
		if db == nil {
			log.Fatal("BACKEND_MODE=local requires DATABASE_URL or DB_HOST")
		}
		backend = gateway.NewLocalFromDB(db)
		log.Println("backend: local postgres order book")
	default:
		backend = gateway.NewClient(cfg.BackendAPIURL, cfg.BackendTimeout, cfg.BackendMaxRetries)
		log.Printf("backend: %s", cfg.BackendAPIURL)
	}

	var store cache.Store = cache.NewMemoryStore(cfg.DirectoryCacheSize)
	if cfg.RedisAddr != "" {
		redisStore := cache.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisStore.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using in-memory cache", err)
		} else {
			store = redisStore
			closers = append(closers, redisStore.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: in-memory")
	}

	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Repository -> Service -> Handler
	var auditRepo repository.AuditRepository
	if db != nil {
		auditRepo = repository.NewAuditRepository(db)
	}
	auditService := service.NewAuditService(auditRepo)
	directoryService := service.NewDirectoryService(backend, store, cfg.DirectoryCacheTTL, cfg.PriceCacheTTL)
	orderService := service.NewOrderService(backend, directoryService)
	invoiceService := service.NewInvoiceService(orderService, backend, directoryService)
	planogramService := service.NewPlanogramService(backend, orderService, directoryService)
	mutationService := service.NewMutationService(backend, directoryService, auditService, wsHub)

	orderHandler := handler.NewOrderHandler(orderService, invoiceService, mutationService)
	auditHandler := handler.NewAuditHandler(auditService)
	podHandler := handler.NewPODHandler(mutationService)
	planogramHandler := handler.NewPlanogramHandler(planogramService)
	podImageHandler := handler.NewPODImageHandler(cfg.PODImageBaseDir, cfg.PODImagesFolder)
	proxyHandler := handler.NewProxyHandler(cfg.BackendAPIURL, cfg.BackendTimeout, directoryService)

	router := gin.Default()
	router.Use(middleware.CORS(cfg.AllowedOrigins, "/api/proxy/"))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, secret)
	})

	api := router.Group("", middleware.Identify(secret))
	orderHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)
	podHandler.RegisterRoutes(api)
	planogramHandler.RegisterRoutes(api)
	podImageHandler.RegisterRoutes(api)
	proxyHandler.RegisterRoutes(router.Group(""))

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	wsHub.Close()

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}
