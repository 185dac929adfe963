package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestKafkaPublisher_Publish(t *testing.T) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, config)

	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got Event
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.Type != TypeOrderCreated || got.OrderID != "ORD0000ABCD" {
			return errors.New("unexpected event " + string(val))
		}
		return nil
	})

	pub := NewKafkaPublisher(producer, "orders", zaptest.NewLogger(t))
	err := pub.Publish(context.Background(), Event{
		Type:       TypeOrderCreated,
		OrderID:    "ORD0000ABCD",
		Status:     "pending",
		Total:      decimal.NewFromInt(250),
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, pub.Close())
}

func TestKafkaPublisher_SendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	boom := errors.New("broker unavailable")
	producer.ExpectSendMessageAndFail(boom)

	pub := NewKafkaPublisher(producer, "orders", zaptest.NewLogger(t))
	err := pub.Publish(context.Background(), Event{Type: TypeOrderStatusChanged, OrderID: "ORD0000ABCD"})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, pub.Close())
}

func TestHeaderCarrier(t *testing.T) {
	var c headerCarrier
	c.Set("traceparent", "00-abc")
	assert.Equal(t, "00-abc", c.Get("traceparent"))
	assert.Empty(t, c.Get("missing"))
	assert.Equal(t, []string{"traceparent"}, c.Keys())
}
