package rabbitmq_test

import (
	"encoding/json"
	"io"
	"log"
	"testing"

	"sweetshop/internal/models"
	"sweetshop/pkg/rabbitmq"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStockEvent(t *testing.T) {
	sweet := &models.Sweet{ID: "sweet-1", Name: "Lollipop", Category: "Candy", Price: 10, Quantity: 3}
	body, err := json.Marshal(models.NewStockEvent(models.EventSweetPurchased, sweet, -2))
	require.NoError(t, err)

	event, err := rabbitmq.DecodeStockEvent(body)
	require.NoError(t, err)
	assert.Equal(t, models.EventSweetPurchased, event.Type)
	assert.Equal(t, "sweet-1", event.SweetID)
	assert.Equal(t, 3, event.Quantity)
	assert.Equal(t, -2, event.Delta)

	_, err = rabbitmq.DecodeStockEvent([]byte("not json"))
	assert.Error(t, err)

	_, err = rabbitmq.DecodeStockEvent([]byte(`{"type":"sweet.purchased"}`))
	assert.Error(t, err)
}

func TestLogStockEvent(t *testing.T) {
	log.SetOutput(io.Discard)

	sweet := &models.Sweet{ID: "sweet-1", Name: "Lollipop", Quantity: 1}
	body, err := json.Marshal(models.NewStockEvent(models.EventSweetLowStock, sweet, -4))
	require.NoError(t, err)

	assert.NoError(t, rabbitmq.LogStockEvent(amqp.Delivery{Body: body}))
	assert.Error(t, rabbitmq.LogStockEvent(amqp.Delivery{Body: []byte("{}")}))
}
