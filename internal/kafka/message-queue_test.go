package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type partitionConsumer struct {
	messages chan *sarama.ConsumerMessage
	errors   chan *sarama.ConsumerError
	once     sync.Once
	closed   int
}

func newPartitionConsumer() *partitionConsumer {
	return &partitionConsumer{
		messages: make(chan *sarama.ConsumerMessage, 8),
		errors:   make(chan *sarama.ConsumerError),
	}
}

func (pc *partitionConsumer) AsyncClose() {
	pc.once.Do(func() {
		close(pc.messages)
		close(pc.errors)
	})
}

func (pc *partitionConsumer) Close() error {
	pc.closed++
	pc.AsyncClose()
	return nil
}

func (pc *partitionConsumer) Messages() <-chan *sarama.ConsumerMessage { return pc.messages }
func (pc *partitionConsumer) Errors() <-chan *sarama.ConsumerError     { return pc.errors }
func (pc *partitionConsumer) HighWaterMarkOffset() int64               { return 0 }

type consumer struct {
	partitions map[string][]int32
	started    map[int32]*partitionConsumer
	closed     bool
}

func (c *consumer) Topics() ([]string, error) {
	var topics []string
	for t := range c.partitions {
		topics = append(topics, t)
	}
	return topics, nil
}

func (c *consumer) Partitions(topic string) ([]int32, error) {
	p, ok := c.partitions[topic]
	if !ok {
		return nil, sarama.ErrUnknownTopicOrPartition
	}
	return p, nil
}

func (c *consumer) ConsumePartition(topic string, partition int32, offset int64) (sarama.PartitionConsumer, error) {
	pc := newPartitionConsumer()
	c.started[partition] = pc
	return pc, nil
}

func (c *consumer) HighWaterMarks() map[string]map[int32]int64 { return nil }

func (c *consumer) Close() error {
	c.closed = true
	return nil
}

func TestConsumeAndShutdown(t *testing.T) {
	c := &consumer{
		partitions: map[string][]int32{"fill": {0, 1}},
		started:    make(map[int32]*partitionConsumer),
	}
	producer := mocks.NewSyncProducer(t, nil)
	mq := New(producer, c, sarama.OffsetNewest, nil)

	var (
		mu  sync.Mutex
		got []string
	)
	done := make(chan struct{}, 2)
	err := mq.Consume("fill", func(_ context.Context, message []byte) {
		mu.Lock()
		got = append(got, string(message))
		mu.Unlock()
		done <- struct{}{}
	})
	require.NoError(t, err)

	err = mq.Consume("fill", func(context.Context, []byte) {})
	assert.True(t, errors.Is(err, errTopicIsExist))

	mq.ListenAndServe()
	c.started[0].messages <- &sarama.ConsumerMessage{Topic: "fill", Partition: 0, Value: []byte("a")}
	c.started[1].messages <- &sarama.ConsumerMessage{Topic: "fill", Partition: 1, Value: []byte("b")}
	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("message was not handled")
		}
	}

	require.NoError(t, mq.Shutdown())
	assert.ElementsMatch(t, []string{"a", "b"}, got)
	assert.Equal(t, 1, c.started[0].closed)
	assert.Equal(t, 1, c.started[1].closed)
	assert.True(t, c.closed)
}

func TestConsumeUnknownTopic(t *testing.T) {
	c := &consumer{partitions: map[string][]int32{}, started: make(map[int32]*partitionConsumer)}
	mq := New(mocks.NewSyncProducer(t, nil), c, sarama.OffsetNewest, nil)
	assert.Error(t, mq.Consume("missing", func(context.Context, []byte) {}))
	require.NoError(t, mq.Shutdown())
}

func TestPublish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndSucceed()
	c := &consumer{partitions: map[string][]int32{}, started: make(map[int32]*partitionConsumer)}
	mq := New(producer, c, sarama.OffsetNewest, nil)

	publish := mq.NewPublish("documents")
	require.NoError(t, publish([]byte("payload")))
	require.NoError(t, mq.Shutdown())
}
