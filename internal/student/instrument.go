package student

import (
	"context"
	"errors"
	"time"

	"leaderboard/internal/metrics"
)

// Instrumented records call latency of a Gateway under a backend label.
type Instrumented struct {
	Gateway
	backend string
}

// Instrument wraps gw.
func Instrument(gw Gateway, backend string) *Instrumented {
	return &Instrumented{Gateway: gw, backend: backend}
}

func (g *Instrumented) observe(op string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	metrics.GatewayDuration.WithLabelValues(op, g.backend, outcome).Observe(time.Since(start).Seconds())
}

// FetchByID implements Gateway.
func (g *Instrumented) FetchByID(ctx context.Context, studentID string) (rec Record, err error) {
	defer func(start time.Time) { g.observe("fetch_by_id", start, err) }(time.Now())
	return g.Gateway.FetchByID(ctx, studentID)
}

// FetchCollection implements Gateway.
func (g *Instrumented) FetchCollection(ctx context.Context, filter Filter) (recs []Record, err error) {
	defer func(start time.Time) { g.observe("fetch_collection", start, err) }(time.Now())
	return g.Gateway.FetchCollection(ctx, filter)
}

// Update implements Gateway.
func (g *Instrumented) Update(ctx context.Context, id string, fields Fields) (err error) {
	defer func(start time.Time) { g.observe("update", start, err) }(time.Now())
	return g.Gateway.Update(ctx, id, fields)
}
