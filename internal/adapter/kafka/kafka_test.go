package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-explorer/internal/domain"
	"github.com/couchcryptid/quake-explorer/internal/observability"
)

// --- mocks ---

type mockWriter struct {
	batches [][]kafkago.Message
	failOn  int // 1-based batch number to fail, 0 never
	closed  bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if m.failOn == len(m.batches)+1 {
		return errors.New("broker unavailable")
	}
	m.batches = append(m.batches, msgs)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func link(id string, hours float64) domain.LinkedEvent {
	ts := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.LinkedEvent{
		Event: domain.Event{ID: id, Timestamp: ts, Latitude: 6.75, Longitude: 126.1, Magnitude: 4.5, Province: "Davao Oriental"},
		Group: "Davao Oriental",
		Next: domain.NextEvent{
			ID:        id + "-next",
			Timestamp: ts.Add(time.Duration(hours * float64(time.Hour))),
			Magnitude: 3.1,
		},
		TimeDeltaHours: hours,
	}
}

// --- tests ---

func TestSerializeToMessage(t *testing.T) {
	msg, err := serializeToMessage(link("eq-1", 2.5))
	require.NoError(t, err)

	assert.Equal(t, []byte("eq-1"), msg.Key)
	var decoded domain.LinkedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "eq-1-next", decoded.Next.ID)
	assert.Equal(t, 2.5, decoded.TimeDeltaHours)

	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "group", msg.Headers[0].Key)
	assert.Equal(t, []byte("Davao Oriental"), msg.Headers[0].Value)
	assert.Equal(t, "urgency", msg.Headers[1].Key)
	assert.Equal(t, []byte("same day"), msg.Headers[1].Value)
	assert.Equal(t, []byte("2.5"), msg.Headers[2].Value)
}

func TestPublish_Batches(t *testing.T) {
	mw := &mockWriter{}
	metrics := observability.NewMetricsForTesting()
	w := newWriter(mw, 2, discardLogger(), metrics)

	links := make([]domain.LinkedEvent, 5)
	for i := range links {
		links[i] = link(fmt.Sprintf("eq-%d", i), float64(i))
	}
	require.NoError(t, w.Publish(context.Background(), links))

	require.Len(t, mw.batches, 3)
	assert.Len(t, mw.batches[0], 2)
	assert.Len(t, mw.batches[2], 1)
	assert.Equal(t, []byte("eq-4"), mw.batches[2][0].Key)

	require.NoError(t, w.Close())
	assert.True(t, mw.closed)
}

func TestPublish_StopsOnError(t *testing.T) {
	mw := &mockWriter{failOn: 2}
	w := newWriter(mw, 1, discardLogger(), observability.NewMetricsForTesting())

	err := w.Publish(context.Background(), []domain.LinkedEvent{link("a", 1), link("b", 1), link("c", 1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
	assert.Len(t, mw.batches, 1)
}

func TestPublish_Empty(t *testing.T) {
	mw := &mockWriter{}
	w := newWriter(mw, 0, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, w.Publish(context.Background(), nil))
	assert.Empty(t, mw.batches)
}
