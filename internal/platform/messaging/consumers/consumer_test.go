package consumers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/eco-fund-ledger/internal/config"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader serves queued messages and then blocks until ctx ends
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func (r *fakeReader) requeue(msg kafka.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(r.queue, msg)
}

func (r *fakeReader) committedOffsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewKafkaConsumer(t *testing.T) {
	cfg := &config.KafkaConfig{
		Brokers:       "localhost:9092",
		DonationTopic: "donations",
		ConsumerGroup: "journal",
		MinBytes:      1,
		MaxBytes:      10e6,
		MaxWait:       time.Second,
	}

	consumer := NewKafkaConsumer(discardLogger(), cfg)
	require.NotNil(t, consumer.reader)
	assert.Equal(t, "donations", consumer.topic)
	assert.Equal(t, "journal", consumer.groupID)
	assert.NoError(t, consumer.Close())
}

func TestKafkaConsumer_Subscribe(t *testing.T) {
	t.Run("CommitsOnlyHandledMessages", func(t *testing.T) {
		reader := &fakeReader{queue: []kafka.Message{
			{Topic: "donations", Offset: 1, Key: []byte("a")},
			{Topic: "donations", Offset: 2, Key: []byte("b")},
		}}
		consumer := &KafkaConsumer{reader: reader, logger: discardLogger(), topic: "donations", retryBackoff: time.Millisecond}

		var (
			mu    sync.Mutex
			calls = map[string]int{}
		)
		handler := func(_ context.Context, key []byte, _ []byte) error {
			mu.Lock()
			defer mu.Unlock()
			calls[string(key)]++
			if string(key) == "b" && calls["b"] == 1 {
				reader.requeue(kafka.Message{Topic: "donations", Offset: 2, Key: []byte("b")})
				return errors.New("journal unavailable")
			}
			return nil
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		require.NoError(t, consumer.Subscribe(ctx, handler))

		assert.Eventually(t, func() bool {
			return len(reader.committedOffsets()) == 2
		}, 2*time.Second, 5*time.Millisecond)
		assert.Equal(t, []int64{1, 2}, reader.committedOffsets())

		mu.Lock()
		assert.Equal(t, 2, calls["b"])
		mu.Unlock()
	})

	t.Run("RequiresHandler", func(t *testing.T) {
		consumer := &KafkaConsumer{reader: &fakeReader{}, logger: discardLogger()}
		assert.Error(t, consumer.Subscribe(context.Background(), nil))
	})
}

func TestKafkaConsumer_Close(t *testing.T) {
	t.Run("CloseWithNilReader", func(t *testing.T) {
		consumer := &KafkaConsumer{logger: discardLogger()}
		require.NoError(t, consumer.Close())
	})

	t.Run("ClosesReader", func(t *testing.T) {
		reader := &fakeReader{}
		consumer := &KafkaConsumer{reader: reader, logger: discardLogger()}
		require.NoError(t, consumer.Close())
		assert.True(t, reader.closed)
	})
}
