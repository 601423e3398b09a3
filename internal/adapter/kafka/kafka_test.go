package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
	"github.com/couchcryptid/georgia-health-dashboard/internal/observability"
)

type recordingWriter struct {
	msgs []kafkago.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(v float64) *float64 { return &v }

var joinedAt = time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)

func testResult() domain.JoinResult {
	return domain.JoinResult{
		Joined: []domain.JoinedRecord{
			{Feature: domain.GeoFeature{ID: "13121", Name: "Fulton"}, Value: ptr(32.9)},
			{Feature: domain.GeoFeature{ID: "13001", Name: "Appling"}},
		},
		JoinedAt: joinedAt,
	}
}

func TestSerializeToMessage(t *testing.T) {
	msg, err := serializeToMessage("hypertension", testResult().Joined[0], joinedAt)
	require.NoError(t, err)

	assert.Equal(t, []byte("13121"), msg.Key)
	assert.JSONEq(t, `{
		"view": "hypertension",
		"fips": "13121",
		"name": "Fulton",
		"value": 32.9,
		"matched": true,
		"joined_at": "2024-04-26T15:10:00Z"
	}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "metric", msg.Headers[0].Key)
	assert.Equal(t, []byte("hypertension"), msg.Headers[0].Value)
	assert.Equal(t, "joined_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(joinedAt.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_Unmatched(t *testing.T) {
	msg, err := serializeToMessage("hypertension", testResult().Joined[1], joinedAt)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Nil(t, body["value"])
	assert.Equal(t, false, body["matched"])
}

func TestPublishJoin(t *testing.T) {
	w := &recordingWriter{}
	metrics := observability.NewMetricsForTesting()
	p := newPublisher(w, metrics, discardLogger())

	require.NoError(t, p.PublishJoin(context.Background(), "hypertension", testResult()))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, []byte("13121"), w.msgs[0].Key)
	assert.Equal(t, []byte("13001"), w.msgs[1].Key)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RecordsPublished))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PublishErrors))
}

func TestPublishJoin_Empty(t *testing.T) {
	w := &recordingWriter{err: errors.New("never called")}
	p := newPublisher(w, observability.NewMetricsForTesting(), discardLogger())

	assert.NoError(t, p.PublishJoin(context.Background(), "hypertension", domain.JoinResult{}))
}

func TestPublishJoin_WriteError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker unavailable")}
	metrics := observability.NewMetricsForTesting()
	p := newPublisher(w, metrics, discardLogger())

	err := p.PublishJoin(context.Background(), "hypertension", testResult())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PublishErrors))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.RecordsPublished))
}
