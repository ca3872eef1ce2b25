package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"auctionhouse/internal/api/handlers"
	apimw "auctionhouse/internal/api/middleware"
	"auctionhouse/internal/config"
	"auctionhouse/internal/domain"
	filestore "auctionhouse/internal/infrastructure/file"
	mysqlstore "auctionhouse/internal/infrastructure/mysql"
	redisstore "auctionhouse/internal/infrastructure/redis"
	"auctionhouse/internal/services"
	"auctionhouse/internal/store"
	"auctionhouse/pkg/logger"
)

func main() {
	log := logger.New()
	log.Info("Starting Auction House")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snaps, cleanup, err := buildSnapshotStore(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize persistence backend", "backend", cfg.Persistence.Backend, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Load the durable snapshot; (nil, nil) means first run.
	snap, err := snaps.Load(ctx)
	if err != nil {
		log.Error("Failed to load snapshot", "error", err)
		os.Exit(1)
	}

	st := store.New(snaps, log)
	if snap != nil {
		st.Restore(snap)
		log.Info("Snapshot restored", "auctions", st.Count())
	}

	credManager := services.NewCredentialManager(st, log)
	if cfg.Admin.Password != "" {
		if err := credManager.Bootstrap(context.Background(), cfg.Admin.Username, cfg.Admin.Password); err != nil {
			log.Error("Failed to bootstrap admin credentials", "error", err)
			os.Exit(1)
		}
	} else if st.Credentials().PasswordHash == "" {
		log.Warn("No admin credentials configured; admin surface will reject all logins until ADMIN_PASSWORD is set")
	}

	engine := services.NewEngine(st, nil, log)

	checkpointer := services.NewCheckpointer(st, cfg.Checkpoint.Interval, log)
	if err := checkpointer.Start(context.Background()); err != nil {
		log.Error("Failed to start checkpointer", "error", err)
		os.Exit(1)
	}

	sessionStore := sessions.NewCookieStore(sessionSecret(cfg, log))
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode
	sessionStore.Options.Path = "/"

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","id":"${id}","remote_ip":"${remote_ip}","method":"${method}","uri":"${uri}","status":${status},"error":"${error}","latency_human":"${latency_human}"}` + "\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	publicHandler := handlers.NewPublicHandler(engine, log)
	adminHandler := handlers.NewAdminHandler(engine, credManager, sessionStore, cfg.Session.Name, log)

	// Public API
	api := e.Group("/api/v1")
	api.GET("/auctions", publicHandler.ListAuctions)
	api.GET("/auctions/:slug", publicHandler.GetAuction)
	api.GET("/auctions/:slug/status", publicHandler.GetStatus)
	api.POST("/auctions/:slug/bids", publicHandler.PlaceBid)

	// Admin surface; login stays outside the session gate.
	e.POST("/admin/login", adminHandler.Login)
	e.POST("/admin/logout", adminHandler.Logout)

	admin := e.Group("/admin", apimw.RequireAdmin(sessionStore, cfg.Session.Name))
	admin.GET("/auctions", adminHandler.ListAuctions)
	admin.POST("/auctions", adminHandler.CreateAuction)
	admin.GET("/auctions/:id", adminHandler.GetAuction)
	admin.PATCH("/auctions/:id", adminHandler.UpdateAuction)
	admin.DELETE("/auctions/:id", adminHandler.DeleteAuction)
	admin.POST("/credentials", adminHandler.RotateCredentials)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "auctionhouse",
			"backend":   cfg.Persistence.Backend,
			"auctions":  st.Count(),
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := checkpointer.Stop(); err != nil {
		log.Error("Failed to stop checkpointer", "error", err)
	}
	// Final snapshot so nothing accepted since the last save is lost.
	if err := st.Checkpoint(shutdownCtx); err != nil {
		log.Warn("Final snapshot save failed", "error", err)
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Auction House stopped")
}

// buildSnapshotStore wires the persistence backend selected by config and
// returns it with a cleanup for any underlying connection.
func buildSnapshotStore(ctx context.Context, cfg *config.Config, log logger.Logger) (domain.SnapshotStore, func(), error) {
	switch cfg.Persistence.Backend {
	case "redis":
		rdb := redisClient.NewClient(&redisClient.Options{
			Addr:     cfg.Persistence.Redis.Address,
			Password: cfg.Persistence.Redis.Password,
			DB:       cfg.Persistence.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, func() {}, err
		}
		log.Info("Connected to Redis", "address", cfg.Persistence.Redis.Address)
		return redisstore.New(rdb, cfg.Persistence.Redis.Key), func() { rdb.Close() }, nil

	case "mysql":
		db, err := sql.Open("mysql", cfg.Persistence.MySQL.DSN)
		if err != nil {
			return nil, func() {}, err
		}
		db.SetMaxOpenConns(cfg.Persistence.MySQL.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Persistence.MySQL.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Persistence.MySQL.ConnMaxLifetime)
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, func() {}, err
		}
		snaps := mysqlstore.New(db)
		if err := snaps.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, func() {}, err
		}
		log.Info("Connected to MySQL")
		return snaps, func() { db.Close() }, nil

	case "file", "":
		log.Info("Using file snapshot store", "path", cfg.Persistence.File.Path)
		return filestore.New(cfg.Persistence.File.Path), func() {}, nil

	default:
		return nil, func() {}, fmt.Errorf("unknown persistence backend %q", cfg.Persistence.Backend)
	}
}

// sessionSecret returns the configured session key, or a random per-process
// key (sessions then die with the process, which only costs a re-login).
func sessionSecret(cfg *config.Config, log logger.Logger) []byte {
	if cfg.Session.Secret != "" {
		return []byte(cfg.Session.Secret)
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatal("Failed to generate session secret", "error", err)
	}
	log.Warn("SESSION_SECRET not set; using ephemeral key", "key_id", hex.EncodeToString(buf[:4]))
	return buf
}
