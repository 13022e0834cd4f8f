package messaging

import (
	"encoding/json"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/orient-appliances/storefront/internal/config"
	"github.com/orient-appliances/storefront/internal/domain/order"
	"github.com/orient-appliances/storefront/internal/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	o := &order.Order{
		ID:          42,
		OrderNumber: "ORD-20260314-00042",
		Origin:      order.OriginShopper,
		Status:      order.StatusPending,
		Total:       decimal.RequireFromString("25720"),
		Currency:    "PKR",
	}
	event := order.NewEvent(order.EventCreated, o, "")

	msg, err := NewMessage("order-events", event)
	require.NoError(t, err)

	assert.Equal(t, "order-events", *msg.TopicPartition.Topic)
	assert.Equal(t, kafka.PartitionAny, msg.TopicPartition.Partition)
	assert.Equal(t, "ORDER#42", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, order.EventCreated, string(msg.Headers[0].Value))

	var decoded order.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "25720.00", decoded.Total)
	assert.Equal(t, event.EventID, decoded.EventID)
}

func TestNewKafkaProducerDisabledWithoutBrokers(t *testing.T) {
	p, err := NewKafkaProducer(&config.Config{}, logger.Discard())
	require.NoError(t, err)
	assert.Nil(t, p)
}
