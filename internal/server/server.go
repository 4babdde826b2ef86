// Package server exposes the chat analytics pipeline over HTTP.
package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/360techsys1/SalesAnalysis/config"
	"github.com/360techsys1/SalesAnalysis/internal/analyst"
	"github.com/360techsys1/SalesAnalysis/internal/cache"
	"github.com/360techsys1/SalesAnalysis/internal/llm"
	"github.com/360techsys1/SalesAnalysis/internal/schema"
	"github.com/360techsys1/SalesAnalysis/internal/store"
	"github.com/360techsys1/SalesAnalysis/internal/telemetry"
)

// Run wires the composition root and serves until the listener stops.
func Run(cfg *appconfig.Config) error {
	if err := cfg.Databases.SQL.Validate(); err != nil {
		return err
	}

	schemaText, err := schema.Load(cfg.Schema.File)
	if err != nil {
		return err
	}

	provider := llm.NewClient(llm.Config{
		APIKey:     cfg.Providers.OpenAI.APIKey,
		Model:      cfg.Providers.OpenAI.CompletionModel,
		BaseURL:    cfg.Providers.OpenAI.BaseURL,
		Timeout:    cfg.Providers.OpenAI.Timeout,
		MaxRetries: cfg.Providers.OpenAI.MaxRetries,
	})

	st := store.New(store.Config{
		Driver:       cfg.Databases.SQL.Driver,
		URL:          cfg.Databases.SQL.URL,
		MaxOpenConns: cfg.Databases.SQL.MaxOpenConns,
		MaxIdleConns: cfg.Databases.SQL.MaxIdleConns,
		ConnMaxIdle:  cfg.Databases.SQL.ConnMaxIdle,
		QueryTimeout: cfg.Databases.SQL.QueryTimeout,
	})
	defer st.Close()

	var executor analyst.Executor = st
	if cfg.Databases.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Databases.Redis.Addr,
			Password: cfg.Databases.Redis.Password,
			DB:       cfg.Databases.Redis.DB,
		})
		executor = cache.New(st, rdb, cfg.Databases.Redis.TTL, func() { telemetry.CacheHits.Inc() })
	}

	a := analyst.New(provider, executor, schemaText)

	e := NewEcho()
	RegisterRoutes(e, &ChatHandler{Analyst: a})

	addr := cfg.General.Listen
	if addr == "" {
		addr = ":4000"
	}
	log.Printf("analytics chat backend listening on %s", addr)
	return e.Start(addr)
}

// NewEcho builds the echo instance with the shared middleware stack.
func NewEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))
	return e
}

// RegisterRoutes attaches all endpoints.
func RegisterRoutes(e *echo.Echo, chat *ChatHandler) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"message": "Sales & Operations Chat Analytics API",
			"endpoints": map[string]string{
				"health": "/healthz",
				"chat":   "/api/chat",
			},
		})
	})
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.POST("/api/chat", chat.Handle)
}
