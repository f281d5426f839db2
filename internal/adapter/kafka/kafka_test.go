package kafka

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRebuilder struct {
	calls  int
	source string
	err    error
}

func (s *stubRebuilder) RebuildSnapshots(_ context.Context, source string) (int, error) {
	s.calls++
	s.source = source
	return 6, s.err
}

func TestDecodeGenerationEvent(t *testing.T) {
	value := []byte(`{"business_id":3,"reading_count":12,"generated_at":"2025-03-10T12:00:00Z"}`)

	event, err := decodeGenerationEvent(value)
	require.NoError(t, err)

	assert.Equal(t, int64(3), event.BusinessID)
	assert.Equal(t, 12, event.ReadingCount)
	assert.Equal(t, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), event.GeneratedAt)
}

func TestDecodeGenerationEventRejectsMalformed(t *testing.T) {
	_, err := decodeGenerationEvent([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeGenerationEventRequiresBusinessID(t *testing.T) {
	_, err := decodeGenerationEvent([]byte(`{"reading_count":12}`))
	assert.Error(t, err)
}

func TestHandleMessageTriggersRebuild(t *testing.T) {
	rebuilder := &stubRebuilder{}
	c := &Consumer{rebuilder: rebuilder, logger: slog.Default()}

	msg := kafkago.Message{
		Value: []byte(`{"business_id":1,"reading_count":4,"generated_at":"2025-03-10T12:00:00Z"}`),
	}

	require.NoError(t, c.handleMessage(context.Background(), msg))
	assert.Equal(t, 1, rebuilder.calls)
	assert.Equal(t, "kafka", rebuilder.source)
}

func TestHandleMessageDropsUndecodable(t *testing.T) {
	rebuilder := &stubRebuilder{}
	c := &Consumer{rebuilder: rebuilder, logger: slog.Default()}

	msg := kafkago.Message{Value: []byte(`garbage`)}

	// Dropped without error so the offset commits and the message is
	// never redelivered.
	require.NoError(t, c.handleMessage(context.Background(), msg))
	assert.Equal(t, 0, rebuilder.calls)
}

func TestHandleMessagePropagatesRebuildError(t *testing.T) {
	rebuilder := &stubRebuilder{err: errors.New("db down")}
	c := &Consumer{rebuilder: rebuilder, logger: slog.Default()}

	msg := kafkago.Message{
		Value: []byte(`{"business_id":1,"generated_at":"2025-03-10T12:00:00Z"}`),
	}

	err := c.handleMessage(context.Background(), msg)
	require.Error(t, err)
	assert.ErrorContains(t, err, "db down")
}
