package server

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"arizor/internal/events"
	"arizor/internal/models"
	"arizor/internal/repositories"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arizor",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "arizor",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "route"})

	sseSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "arizor",
		Subsystem: "http",
		Name:      "sse_subscribers",
		Help:      "Open SSE event streams",
	})

	stepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arizor",
		Subsystem: "steps",
		Name:      "runs_total",
		Help:      "Finished step runs by outcome",
	}, []string{"outcome"})

	stepValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arizor",
		Subsystem: "steps",
		Name:      "validations_total",
		Help:      "Heuristic validation outcomes",
	}, []string{"outcome"})

	sessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "arizor",
		Subsystem: "sessions",
		Name:      "completed_total",
		Help:      "Sessions that reached the end of their sequence",
	})

	llmCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arizor",
		Subsystem: "llm",
		Name:      "calls_total",
		Help:      "Recorded LLM calls by model and kind",
	}, []string{"model", "kind"})

	llmTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arizor",
		Subsystem: "llm",
		Name:      "tokens_total",
		Help:      "Tokens consumed by model and direction",
	}, []string{"model", "direction"})

	llmCost = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arizor",
		Subsystem: "llm",
		Name:      "cost_usd_total",
		Help:      "Estimated LLM spend in USD by model",
	}, []string{"model"})
)

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveBroker tails the broker and feeds the step and session counters.
// Returns a stop func that unsubscribes and waits for the drain.
func ObserveBroker(b *events.Broker) func() {
	ch, cancel := b.Subscribe("", 64)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for env := range ch {
			switch env.Topic {
			case events.TopicStepCompleted:
				stepRuns.WithLabelValues("completed").Inc()
			case events.TopicStepFailed:
				stepRuns.WithLabelValues("failed").Inc()
			case events.TopicStepValidated:
				if env.Event.Type == events.EventWarn {
					stepValidations.WithLabelValues("flagged").Inc()
				} else {
					stepValidations.WithLabelValues("passed").Inc()
				}
			case events.TopicSessionCompleted:
				sessionsCompleted.Inc()
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

type meteredUsage struct {
	repositories.UsageRepository
}

// MeterUsage wraps a usage repository so every recorded LLM call also
// feeds the token and cost counters.
func MeterUsage(inner repositories.UsageRepository) repositories.UsageRepository {
	return &meteredUsage{UsageRepository: inner}
}

func (m *meteredUsage) Create(ctx context.Context, record *models.UsageRecord) error {
	if err := m.UsageRepository.Create(ctx, record); err != nil {
		return err
	}
	llmCalls.WithLabelValues(record.Model, record.Kind).Inc()
	llmTokens.WithLabelValues(record.Model, "input").Add(float64(record.InputTokens))
	llmTokens.WithLabelValues(record.Model, "output").Add(float64(record.OutputTokens))
	llmCost.WithLabelValues(record.Model).Add(record.CostUSD)
	return nil
}
