// Package events publishes ride lifecycle events to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/trace"

	"cabbooking/internal/domain"
)

type natsPublisher interface {
	PublishMsg(msg *nats.Msg) error
}

// Publisher sends events to "<prefix>.<event type>". A nil connection turns
// Publish into a no-op.
type Publisher struct {
	conn   natsPublisher
	prefix string
}

// NewPublisher creates a publisher on conn. conn may be nil.
func NewPublisher(conn *nats.Conn, prefix string) *Publisher {
	p := &Publisher{prefix: prefix}
	if conn != nil {
		p.conn = conn
	}
	return p
}

// Publish marshals event as JSON and sends it.
func (p *Publisher) Publish(ctx context.Context, event domain.RideEvent) error {
	if p == nil || p.conn == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := nats.NewMsg(p.subject(event.Type))
	msg.Data = payload
	msg.Header.Set("x-event-type", string(event.Type))
	if traceID := traceIDFromContext(ctx); traceID != "" {
		msg.Header.Set("x-trace-id", traceID)
	}
	return p.conn.PublishMsg(msg)
}

func (p *Publisher) subject(eventType domain.EventType) string {
	if p.prefix == "" {
		return string(eventType)
	}
	return p.prefix + "." + string(eventType)
}

func traceIDFromContext(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
