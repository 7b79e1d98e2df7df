package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var calls []string
	d.Subscribe(EventLeadCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventLeadCreated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventLeadDeleted, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventLeadCreated}))
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestSubscribeAll(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	count := 0
	SubscribeAll(d, func(context.Context, Event) error {
		count++
		return nil
	})
	for _, eventType := range AllTypes {
		require.NoError(t, d.Publish(context.Background(), Event{Type: eventType}))
	}
	assert.Equal(t, len(AllTypes), count)
}

type fakeChannel struct {
	declared  string
	exchange  string
	key       string
	published []amqp.Publishing
	failWith  error
	closed    bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	f.declared = name + ":" + kind
	return nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.exchange = exchange
	f.key = key
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublisherHandle(t *testing.T) {
	ch := &fakeChannel{}
	pub, err := newAMQPPublisher(ch, "ex.leads")
	require.NoError(t, err)
	assert.Equal(t, "ex.leads:topic", ch.declared)

	event := Event{
		ID:        "e1",
		Type:      EventLeadStatusChanged,
		LeadID:    "l1",
		Timestamp: time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC),
		Payload:   LeadStatusChangedPayload{OldStatus: "New", NewStatus: "Contacted"},
	}
	require.NoError(t, pub.Handle(context.Background(), event))

	require.Len(t, ch.published, 1)
	assert.Equal(t, "ex.leads", ch.exchange)
	assert.Equal(t, "lead.lead_status_changed", ch.key)
	msg := ch.published[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "l1", decoded["lead_id"])

	ch.failWith = errors.New("channel closed")
	assert.Error(t, pub.Handle(context.Background(), event))

	require.NoError(t, pub.Close())
	assert.True(t, ch.closed)
}
