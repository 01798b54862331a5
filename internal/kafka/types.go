package kafka

import (
	"context"
	"errors"

	"github.com/Shopify/sarama"
)

var errTopicIsExist = errors.New("topic is already consumed")

// Handler message from mq.
type Handler func(ctx context.Context, message []byte)

// Publish message to mq.
type Publish func(message []byte) error

type handler struct {
	partitionConsumers []sarama.PartitionConsumer
	handler            Handler
}
