package telemetry

import (
	"context"

	"github.com/irfndi/cryptogap-go/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/irfndi/cryptogap-go/internal/telemetry"

// BusinessTracer starts spans for domain operations.
type BusinessTracer struct {
	tracer trace.Tracer
}

// NewBusinessTracer uses the global tracer provider.
func NewBusinessTracer() *BusinessTracer {
	return &BusinessTracer{tracer: otel.Tracer(tracerName)}
}

// TraceArbitrageCycle starts a span around one poll of every exchange.
func (bt *BusinessTracer) TraceArbitrageCycle(ctx context.Context, exchanges []string) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "arbitrage.cycle",
		trace.WithAttributes(attribute.StringSlice("exchanges", exchanges)))
}

// RecordTopOpportunity annotates span with the best opportunity of a cycle.
func (bt *BusinessTracer) RecordTopOpportunity(span trace.Span, found int, top *models.ArbitrageOpportunity) {
	span.SetAttributes(attribute.Int("opportunities_found", found))
	if top == nil {
		return
	}
	gap, _ := top.PriceDiffPct.Float64()
	span.SetAttributes(
		attribute.String("top.symbol", top.Symbol),
		attribute.String("top.market", top.Market),
		attribute.String("top.buy_exchange", top.BuyExchange),
		attribute.String("top.sell_exchange", top.SellExchange),
		attribute.Float64("top.price_diff_pct", gap),
	)
}

// TraceNotification starts a span for one notification delivery.
func (bt *BusinessTracer) TraceNotification(ctx context.Context, notificationType, channel string) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "notification",
		trace.WithAttributes(
			attribute.String("notification_type", notificationType),
			attribute.String("channel", channel),
		))
}

// End closes span, marking it failed when err is set.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
