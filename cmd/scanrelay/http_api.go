package main

import (
	"embed"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/template/html/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kdudkov/scanrelay/internal/history"
	"github.com/kdudkov/scanrelay/internal/store"
	"github.com/kdudkov/scanrelay/internal/wshandler"
	"github.com/kdudkov/scanrelay/pkg/log"
)

//go:embed templates
var templates embed.FS

type HttpAPI struct {
	f    *fiber.App
	addr string
}

func NewHttpAPI(app *App, addr string) *HttpAPI {
	api := &HttpAPI{addr: addr}

	engine := html.NewFileSystem(http.FS(templates), ".html")

	engine.Delims("[[", "]]")

	api.f = fiber.New(fiber.Config{EnablePrintRoutes: false, DisableStartupMessage: true, Views: engine})

	api.f.Use(cors.New())
	api.f.Use(log.NewFiberLogger(&log.LoggerConfig{
		Name:          "api",
		Level:         slog.LevelDebug,
		DoMetrics:     true,
		LogErrorsOnly: true,
		Skip: func(c *fiber.Ctx) bool {
			return c.Path() == "/metrics"
		},
	}))

	api.f.Get("/", getIndexHandler(app))
	api.f.Get("/status", getStatusHandler(app))

	api.f.Get("/api/talkgroups", getTalkgroupsHandler(app))
	api.f.Get("/api/talkgroup/:id/history", getTalkgroupHistoryHandler(app))
	api.f.Get("/api/history/:duration", getDurationHistoryHandler(app))

	api.f.Get("/ws", getWsHandler(app))
	api.f.Get("/metrics", getMetricsHandler())

	return api
}

func (api *HttpAPI) Address() string {
	return api.addr
}

func (api *HttpAPI) Listen() error {
	return api.f.Listen(api.addr)
}

func (api *HttpAPI) Shutdown(timeout time.Duration) error {
	return api.f.ShutdownWithTimeout(timeout)
}

func getIndexHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		data := map[string]any{
			"version":    gitRevision,
			"talkgroups": app.catalog.Len(),
			"durations":  history.Durations(),
			"store":      app.store,
		}

		return ctx.Render("templates/index", data)
	}
}

func getStatusHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		r := fiber.Map{
			"version":      gitBranch + ":" + gitRevision,
			"uptime":       int(time.Since(app.started).Seconds()),
			"talkgroups":   app.catalog.Len(),
			"subscribers":  app.relay.Subscribers(),
			"totalEvents":  app.relay.Total(),
			"lastInterval": app.reporter.Last(),
			"interval":     app.reporter.Interval().String(),
			"mqtt":         app.mqtt != nil,
		}

		if t := app.reporter.LastReport(); !t.IsZero() {
			r["lastReport"] = t.UTC().Format(time.RFC3339)
		}

		return ctx.JSON(r)
	}
}

func getTalkgroupsHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return ctx.JSON(app.catalog.All())
	}
}

func getTalkgroupHistoryHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		res, err := app.history.ByTalkgroup(ctx.UserContext(), ctx.Params("id"))
		if err != nil {
			return errorResponse(ctx, err)
		}

		return ctx.JSON(res)
	}
}

func getDurationHistoryHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		res, err := app.history.ByDuration(ctx.UserContext(), ctx.Params("duration"))
		if err != nil {
			return errorResponse(ctx, err)
		}

		return ctx.JSON(res)
	}
}

func getWsHandler(app *App) fiber.Handler {
	return websocket.New(func(ws *websocket.Conn) {
		name := "ws-" + uuid.NewString()
		logger := slog.Default().With("logger", "ws")

		h := wshandler.NewHandler(logger, name, ws, app.config.QueueSize())

		logger.Debug("ws listener connected", slog.String("addr", ws.RemoteAddr().String()))
		app.relay.Register(h.Subscriber())
		h.Listen()
		app.relay.Unregister(name)
		logger.Debug("ws listener disconnected")
	})
}

func getMetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(
		prometheus.DefaultGatherer,
		promhttp.HandlerOpts{DisableCompression: true},
	))
}

// errorResponse maps bad input to 400 and store trouble to 503. Internal
// details of 5xx errors are only logged.
func errorResponse(ctx *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, history.ErrInvalidArgument):
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, store.ErrUnavailable):
		slog.Warn("history query failed", slog.String("path", ctx.Path()), slog.Any("error", err))

		return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "event store unavailable"})

	default:
		slog.Error("history query failed", slog.String("path", ctx.Path()), slog.Any("error", err))

		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
