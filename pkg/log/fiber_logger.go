package log

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "scanrelay",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "The latency of the HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"api"})

	httpRequestsCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scanrelay",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Number of the HTTP requests.",
	}, []string{"api", "route", "method", "code"})
)

type LoggerConfig struct {
	Name          string
	Level         slog.Level
	DoMetrics     bool
	LogErrorsOnly bool
	Skip          func(c *fiber.Ctx) bool
}

func NewFiberLogger(conf *LoggerConfig) fiber.Handler {
	if conf == nil {
		conf = &LoggerConfig{Name: "http"}
	}

	logger := slog.Default().With(slog.String("logger", conf.Name))

	return func(c *fiber.Ctx) error {
		if conf.Skip != nil && conf.Skip(c) {
			return c.Next()
		}

		start := time.Now()
		chainErr := c.Next()
		wt := time.Since(start)

		if conf.DoMetrics {
			metrics(conf.Name, c, wt)
		}

		status := c.Response().StatusCode()
		msg := fmt.Sprintf("%d %s %s", status, c.Method(), c.OriginalURL())
		l := logger

		if chainErr != nil {
			l = l.With(slog.Any("error", chainErr))
		}

		attrs := []any{
			slog.String("client", c.IP()+":"+c.Port()),
			slog.Int("status", status),
			slog.Int64("ms", wt.Milliseconds()),
		}

		switch {
		case status >= 500:
			l.Warn(msg, attrs...)
		case conf.LogErrorsOnly && status < 300:
			l.Debug(msg, attrs...)
		default:
			l.Log(c.UserContext(), conf.Level, msg, attrs...)
		}

		return chainErr
	}
}

// route label uses the matched route template, so /api/talkgroup/:id/history
// does not explode into one series per talkgroup.
func metrics(api string, ctx *fiber.Ctx, t time.Duration) {
	httpRequestsDuration.With(prometheus.Labels{"api": api}).Observe(t.Seconds())

	route := "unknown"
	if r := ctx.Route(); r != nil && r.Path != "" {
		route = r.Path
	}

	httpRequestsCount.With(prometheus.Labels{
		"api":    api,
		"route":  route,
		"method": ctx.Method(),
		"code":   strconv.Itoa(ctx.Response().StatusCode()),
	}).Inc()
}
