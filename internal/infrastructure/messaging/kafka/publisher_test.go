package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growthdesk/storefront/internal/core/domain"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublisher_Publish_KeysByOrderID(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{w: w}

	ev := domain.OrderEvent{
		ID:         "evt-1",
		Type:       domain.EventOrderCreated,
		OrderID:    "64b7f0c2a1b2c3d4e5f60718",
		UserID:     "64b7f0c2a1b2c3d4e5f60719",
		Status:     domain.OrderPending,
		TotalPrice: 250,
		OccurredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), ev))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, ev.OrderID, string(msg.Key))
	assert.Equal(t, ev.OccurredAt, msg.Time)

	var got domain.OrderEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, ev.Type, got.Type)
	assert.Equal(t, ev.TotalPrice, got.TotalPrice)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "application/json", headers["content-type"])
	assert.Equal(t, domain.EventOrderCreated, headers["event-type"])
	assert.Equal(t, "evt-1", headers["event-id"])
}

func TestPublisher_Publish_WriteError(t *testing.T) {
	p := &Publisher{w: &fakeWriter{err: errors.New("broker down")}}

	err := p.Publish(context.Background(), domain.OrderEvent{Type: domain.EventOrderStatusChanged, OrderID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestPublisher_Close(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{w: w}
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
