package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskflow/internal/config"
	"github.com/adanyl0v/taskflow/internal/delivery/http/v1"
	"github.com/adanyl0v/taskflow/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}
	httpCfg := cfg.HTTP

	router, err := newRouter(componentLogger("access"), httpCfg.TrustedProxies)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Strs("trusted_proxies", httpCfg.TrustedProxies).
			Msg("invalid trusted proxies")
		panic(err)
	}
	registerRoutes(router)

	server := &http.Server{
		Addr:              net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler:           router,
		ReadHeaderTimeout: httpCfg.ReadTimeout,
		ReadTimeout:       httpCfg.ReadTimeout,
		WriteTimeout:      httpCfg.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		globalLogger.Info().
			Str("addr", server.Addr).
			Msg("serving http")
		serveErr <- server.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
		return
	case <-ctx.Done():
	}

	globalLogger.Info().Msg("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err = server.Shutdown(shutdownCtx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

// newRouter builds the engine with access logging and recovery. Client IPs,
// which feed the session fingerprint, are taken from X-Forwarded-For only
// when the peer is one of trustedProxies.
func newRouter(logger zerolog.Logger, trustedProxies []string) (*gin.Engine, error) {
	router := gin.New()
	err := router.SetTrustedProxies(trustedProxies)
	if err != nil {
		return nil, err
	}
	router.Use(requestLogger(logger))
	router.Use(gin.Recovery())
	return router, nil
}

// requestLogger writes one access log line per request.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = logger.Error()
		case status >= http.StatusBadRequest:
			event = logger.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("handled request")
	}
}

func registerRoutes(router *gin.Engine) {
	jwtCfg := config.Global().JWT

	authService := services.NewAuthService(
		componentLogger("auth"),
		globalPostgresPool,
		jwtCfg.Issuer,
		[]byte(jwtCfg.SigningKey),
		jwtCfg.AccessTokenTTL,
		jwtCfg.RefreshTokenTTL,
	)
	sessionService := services.NewSessionService(componentLogger("sessions"), globalPostgresPool)
	profileService := services.NewProfileService(componentLogger("profiles"), globalPostgresPool)
	taskService := services.NewTaskService(componentLogger("tasks"), globalPostgresPool)

	v1Handler := v1.New(
		componentLogger("http"),
		authService,
		sessionService,
		profileService,
		taskService,
	)

	router.GET("/healthz", handleHealth)
	v1.RegisterRoutes(router, v1Handler)
}

func handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c, 2*time.Second)
	defer cancel()

	err := globalPostgresPool.Ping(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
