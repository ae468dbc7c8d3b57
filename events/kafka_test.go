package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/junaidrashid-git/storefront-api/cart"
)

func TestNewPublisher_DisabledWithoutBrokers(t *testing.T) {
	assert.Nil(t, NewPublisher("", "storefront.cart", zaptest.NewLogger(t)))
	assert.Nil(t, NewPublisher(" , ", "storefront.cart", zaptest.NewLogger(t)))
}

func TestNewPublisher_Brokers(t *testing.T) {
	p := NewPublisher("kafka-1:9092, kafka-2:9092", "storefront.cart", zaptest.NewLogger(t))
	require.NotNil(t, p)
	assert.NotNil(t, p.writer.Addr)
	assert.Equal(t, "storefront.cart", p.writer.Topic)
	assert.True(t, p.writer.Async)
}

func TestMessage(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg, err := Message(cart.Event{
		Type:       cart.EventMerged,
		CartID:     "c1",
		UserID:     "u1",
		SessionID:  "secret-session",
		MergedFrom: "g1",
		ItemCount:  4,
		GrandTotal: "400.00",
		At:         at,
	})
	require.NoError(t, err)

	assert.Equal(t, "c1", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "cart.merged", string(msg.Headers[0].Value))

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "cart.merged", body["type"])
	assert.Equal(t, "g1", body["merged_from"])
	assert.Equal(t, float64(4), body["item_count"])
	assert.NotContains(t, string(msg.Value), "secret-session", "session ids must not leave the process")
}
