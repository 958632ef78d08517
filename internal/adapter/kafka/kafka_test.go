package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/diary-location-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("42:m-1"),
		Value:     []byte(`{"user_id":"42","message_id":"m-1","text":"在杭州"}`),
		Topic:     "diary-messages",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "client", Value: []byte("ios")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("42:m-1"), raw.Key)
	assert.JSONEq(t, `{"user_id":"42","message_id":"m-1","text":"在杭州"}`, string(raw.Value))
	assert.Equal(t, "diary-messages", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "ios", raw.Headers["client"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	resolved := time.Date(2026, 2, 18, 20, 0, 5, 0, time.UTC)
	entry := domain.TitledEntry{
		DiaryMessage: domain.DiaryMessage{
			UserID:    "42",
			MessageID: "m-1",
			Text:      "今天在杭州",
			SentAt:    time.Date(2026, 2, 18, 20, 0, 0, 0, time.UTC),
		},
		Location:   "Hangzhou",
		Display:    "杭州",
		Tier:       domain.FromMessage,
		Matched:    "杭州",
		Title:      "2026年2月19日 星期四 · 杭州",
		ResolvedAt: resolved,
	}

	msg, err := serializeToMessage(entry)
	require.NoError(t, err)

	assert.Equal(t, []byte("42:m-1"), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "tier", msg.Headers[0].Key)
	assert.Equal(t, []byte("message"), msg.Headers[0].Value)
	assert.Equal(t, "resolved_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(resolved.Format(time.RFC3339)), msg.Headers[1].Value)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "42", body["user_id"])
	assert.Equal(t, "Hangzhou", body["location"])
	assert.Equal(t, "message", body["tier"])
	assert.Equal(t, "2026年2月19日 星期四 · 杭州", body["title"])
}

func TestSerializeToMessage_InvalidTier(t *testing.T) {
	_, err := serializeToMessage(domain.TitledEntry{})
	assert.Error(t, err)
}

type fetchResult struct {
	msg kafkago.Message
	err error
}

// fakeFetcher replays results in order, then blocks until the context ends.
type fakeFetcher struct {
	results   []fetchResult
	committed []kafkago.Message
}

func (f *fakeFetcher) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if len(f.results) == 0 {
		<-ctx.Done()
		return kafkago.Message{}, ctx.Err()
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r.msg, r.err
}

func (f *fakeFetcher) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	f.committed = append(f.committed, msgs...)
	return nil
}

func (f *fakeFetcher) Close() error { return nil }

func newTestReader(f *fakeFetcher) *Reader {
	return &Reader{
		reader:        f,
		flushInterval: 50 * time.Millisecond,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestExtractBatch_FlushInterval(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{
		{msg: kafkago.Message{Offset: 1}},
		{msg: kafkago.Message{Offset: 2}},
	}}
	r := newTestReader(f)

	batch, err := r.ExtractBatch(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, int64(2), batch[1].Offset)

	require.NoError(t, batch[0].Commit(context.Background()))
	require.Len(t, f.committed, 1)
	assert.Equal(t, int64(1), f.committed[0].Offset)
}

func TestExtractBatch_FirstFetchError(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{{err: errors.New("broker down")}}}
	r := newTestReader(f)

	batch, err := r.ExtractBatch(context.Background(), 10)
	require.Error(t, err)
	assert.Empty(t, batch)
}

func TestExtractBatch_FetchErrorKeepsFetchedMessages(t *testing.T) {
	fetchErr := errors.New("broker down")
	f := &fakeFetcher{results: []fetchResult{
		{msg: kafkago.Message{Offset: 1}},
		{msg: kafkago.Message{Offset: 2}},
		{err: fetchErr},
		{err: fetchErr},
	}}
	r := newTestReader(f)

	batch, err := r.ExtractBatch(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, int64(1), batch[0].Offset)
	assert.Equal(t, int64(2), batch[1].Offset)

	_, err = r.ExtractBatch(context.Background(), 10)
	assert.ErrorIs(t, err, fetchErr)
}
