package kafka

import (
	"context"
	"fmt"
	"sync"

	"github.com/Shopify/sarama"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// MessageQueue of kafka.
type MessageQueue struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	client   sarama.Client
	producer sarama.SyncProducer
	consumer sarama.Consumer
	handler  map[string]handler
	offset   int64

	logger log.Logger
}

// NewMessageQueue connects to the brokers at addrs. Consumed partitions start at offset.
func NewMessageQueue(
	addrs []string,
	offset int64,
	logger log.Logger,
) (mq *MessageQueue, err error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	client, err := sarama.NewClient(addrs, cfg)
	if err != nil {
		return
	}
	producer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		client.Close()
		return
	}
	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		producer.Close()
		client.Close()
		return
	}
	mq = New(producer, consumer, offset, logger)
	mq.client = client
	return
}

// New message queue on top of an existing producer and consumer.
func New(
	producer sarama.SyncProducer,
	consumer sarama.Consumer,
	offset int64,
	logger log.Logger,
) *MessageQueue {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	mq := &MessageQueue{
		producer: producer,
		consumer: consumer,
		handler:  make(map[string]handler),
		offset:   offset,
		logger:   logger,
	}
	mq.ctx, mq.cancel = context.WithCancel(context.Background())
	return mq
}

// Consume adds consume topic, every partition of it.
func (mq *MessageQueue) Consume(topic string, h Handler) error {
	if _, isExist := mq.handler[topic]; isExist {
		return fmt.Errorf("consume %s: %w", topic, errTopicIsExist)
	}
	partitions, err := mq.consumer.Partitions(topic)
	if err != nil {
		return fmt.Errorf("partitions of %s: %w", topic, err)
	}
	t := handler{handler: h}
	for _, partition := range partitions {
		cp, err := mq.consumer.ConsumePartition(topic, partition, mq.offset)
		if err != nil {
			for _, started := range t.partitionConsumers {
				started.Close()
			}
			return fmt.Errorf("consume %s/%d: %w", topic, partition, err)
		}
		t.partitionConsumers = append(t.partitionConsumers, cp)
	}
	mq.handler[topic] = t
	return nil
}

// NewPublish returns publish func.
func (mq *MessageQueue) NewPublish(topic string) Publish {
	return func(message []byte) (err error) {
		msg := &sarama.ProducerMessage{
			Topic: topic,
			Value: sarama.ByteEncoder(message),
		}
		_, _, err = mq.producer.SendMessage(msg)
		return
	}
}

// ListenAndServe message queue.
func (mq *MessageQueue) ListenAndServe() {
	for topic, t := range mq.handler {
		for _, cp := range t.partitionConsumers {
			mq.wg.Add(1)
			go mq.runtime(topic, cp, t.handler)
		}
	}
}

// Shutdown stops consuming, waits for running handlers and closes the connections.
func (mq *MessageQueue) Shutdown() (err error) {
	mq.cancel()
	for topic, t := range mq.handler {
		for _, cp := range t.partitionConsumers {
			if cerr := cp.Close(); cerr != nil {
				level.Error(mq.logger).Log("msg", "close partition consumer", "topic", topic, "err", cerr)
			}
		}
	}
	mq.wg.Wait()
	if cerr := mq.producer.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if cerr := mq.consumer.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if mq.client != nil && !mq.client.Closed() {
		if cerr := mq.client.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return
}

func (mq *MessageQueue) runtime(topic string, cp sarama.PartitionConsumer, h Handler) {
	defer mq.wg.Done()
	for {
		select {
		case <-mq.ctx.Done():
			return
		case m, ok := <-cp.Messages():
			if !ok {
				return
			}
			level.Debug(mq.logger).Log("msg", "message", "topic", topic, "partition", m.Partition, "offset", m.Offset)
			mq.wg.Add(1)
			go func() {
				defer mq.wg.Done()
				h(mq.ctx, m.Value)
			}()
		}
	}
}
