package telemetry

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/raushankrgupta/fitly-tryon"

// Metrics counts pipeline outcomes. Ledger failures are also kept in-process
// so /healthz can report drift without a metrics backend.
type Metrics struct {
	invocations     metric.Int64Counter
	ledgerFailures  metric.Int64Counter
	ledgerDupes     metric.Int64Counter
	ledgerFailCount atomic.Int64
	ledgerDupeCount atomic.Int64
}

// NewMetrics registers the counters on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	invocations, err := meter.Int64Counter("tryon.invocations",
		metric.WithDescription("Try-on invocations by outcome"))
	if err != nil {
		return nil, err
	}
	ledgerFailures, err := meter.Int64Counter("tryon.ledger.write_failures",
		metric.WithDescription("Outfit records lost after a successful rehost"))
	if err != nil {
		return nil, err
	}
	ledgerDupes, err := meter.Int64Counter("tryon.ledger.duplicates",
		metric.WithDescription("Ledger writes skipped because the triple already exists"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		invocations:    invocations,
		ledgerFailures: ledgerFailures,
		ledgerDupes:    ledgerDupes,
	}, nil
}

// Invocation records one finished invocation; outcome is "completed" or an error kind.
func (m *Metrics) Invocation(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.invocations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) LedgerWriteFailed(ctx context.Context) {
	if m == nil {
		return
	}
	m.ledgerFailCount.Add(1)
	m.ledgerFailures.Add(ctx, 1)
}

func (m *Metrics) LedgerDuplicate(ctx context.Context) {
	if m == nil {
		return
	}
	m.ledgerDupeCount.Add(1)
	m.ledgerDupes.Add(ctx, 1)
}

// LedgerWriteFailures is the in-process count since start.
func (m *Metrics) LedgerWriteFailures() int64 {
	if m == nil {
		return 0
	}
	return m.ledgerFailCount.Load()
}

func (m *Metrics) LedgerDuplicates() int64 {
	if m == nil {
		return 0
	}
	return m.ledgerDupeCount.Load()
}
