package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"portfolio/admin"
	"portfolio/analytics"
	"portfolio/blog"
	"portfolio/cache"
	"portfolio/common"
	"portfolio/database"
	"portfolio/email"
	"portfolio/site"
	"portfolio/storage"
	"portfolio/validation"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := common.LoadConfig()
	if err != nil {
		return err
	}
	common.InitLogger(cfg.IsDevelopment(), cfg.LogLevel, cfg.SentryDSN)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := common.ConnectDb(cfg.DatabasePath)
	if err != nil {
		return err
	}
	if err := database.RunMigrations(db); err != nil {
		return err
	}
	if err := database.SeedAdmin(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return err
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	v := validation.New()
	validation.Install(v)

	var store cache.Store
	if cfg.UseRedisCache() {
		redisStore, err := cache.NewRedisStore(ctx, cfg.RedisURL, cfg.CachePrefix)
		if err != nil {
			return err
		}
		defer redisStore.Close()
		store = redisStore
		slog.Info("response cache backed by redis")
	} else {
		store = cache.NewMemoryStore()
	}
	responseCache := cache.NewResponseCache(store, cfg.CacheTTL)

	uploadStorage, err := storage.New(ctx, cfg)
	if err != nil {
		return err
	}
	uploader := storage.NewUploader(uploadStorage, cfg.UploadMaxBytes, cfg.UploadMaxWidth)

	analyticsModule := analytics.NewAnalyticsModule(db, cfg.CookieSecure)
	writeLimiter := common.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	loginLimiter := common.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	router := gin.New()
	router.Use(common.Recovery(), common.RequestLogger())

	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions(cfg.SessionName, sessionStore))
	router.Use(common.ErrorHandler())

	if local, ok := uploadStorage.(*storage.LocalStorage); ok {
		router.Static("/uploads", local.Dir())
	}

	admin.NewAdminModule(db, v, responseCache, uploader, analyticsModule, loginLimiter).RegisterRoutes(router)
	blog.NewBlogModule(db, v, analyticsModule, responseCache, writeLimiter).RegisterRoutes(router)
	site.NewSiteModule(db, v, responseCache, writeLimiter, email.NewEmailService(cfg), cfg.SiteURL).RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "port", cfg.Port, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
