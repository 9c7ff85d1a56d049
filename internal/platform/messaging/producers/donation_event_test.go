package producers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKafkaWriter mocks KafkaWriter interface
type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDonationEventProducer_Publish(t *testing.T) {
	ctx := context.Background()
	value := []byte(`{"event_type":"donation.recorded","amount":5000}`)

	t.Run("SuccessfulPublish", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &DonationEventProducer{logger: discardLogger(), writer: mockWriter, topic: "donations"}

		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			msg := msgs[0]
			return string(msg.Key) == "d-1" &&
				string(msg.Value) == string(value) &&
				len(msg.Headers) == 2 &&
				msg.Headers[0].Key == "correlation_id" &&
				msg.Headers[1].Key == "event_type"
		})).Return(nil).Once()

		err := producer.Publish(ctx, "d-1", value, map[string]string{
			"event_type":     "donation.recorded",
			"correlation_id": "corr-1",
		})
		require.NoError(t, err)
		mockWriter.AssertExpectations(t)
	})

	t.Run("WriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &DonationEventProducer{logger: discardLogger(), writer: mockWriter, topic: "donations"}
		writerErr := errors.New("leader not available")
		mockWriter.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(writerErr).Once()

		err := producer.Publish(ctx, "d-2", value, nil)
		assert.ErrorIs(t, err, writerErr)
		assert.Contains(t, err.Error(), "donations")
	})
}

func TestDonationEventProducer_Close(t *testing.T) {
	mockWriter := new(MockKafkaWriter)
	producer := &DonationEventProducer{logger: discardLogger(), writer: mockWriter, topic: "donations"}
	mockWriter.On("Close").Return(errors.New("closed twice")).Once()

	assert.EqualError(t, producer.Close(), "failed to close kafka writer for topic donations: closed twice")
}

func TestToKafkaHeaders(t *testing.T) {
	assert.Nil(t, toKafkaHeaders(nil))
	headers := toKafkaHeaders(map[string]string{"b": "2", "a": "1"})
	require.Len(t, headers, 2)
	assert.Equal(t, "a", headers[0].Key)
	assert.Equal(t, []byte("2"), headers[1].Value)
}

func TestTopicConfigFor(t *testing.T) {
	tc := topicConfigFor("donations", 0, -1)
	assert.Equal(t, kafka.TopicConfig{Topic: "donations", NumPartitions: 1, ReplicationFactor: 1}, tc)

	tc = topicConfigFor("donations", 6, 3)
	assert.Equal(t, 6, tc.NumPartitions)
	assert.Equal(t, 3, tc.ReplicationFactor)
}
