package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/diary-location-service/internal/domain"
	"github.com/couchcryptid/diary-location-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// EntryTransformer implements Transformer: it parses a diary message,
// resolves its location, and builds the entry title.
type EntryTransformer struct {
	resolver *domain.Resolver
	titles   *domain.TitleBuilder
	clock    clockwork.Clock
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewTransformer creates an EntryTransformer. A nil clock uses real time.
func NewTransformer(resolver *domain.Resolver, titles *domain.TitleBuilder, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *EntryTransformer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &EntryTransformer{
		resolver: resolver,
		titles:   titles,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
	}
}

func (t *EntryTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.TitledEntry, error) {
	msg, err := domain.ParseDiaryMessage(raw)
	if err != nil {
		return domain.TitledEntry{}, err
	}

	start := time.Now()
	res := t.resolver.Resolve(ctx, msg.Text, msg.UserID)
	t.metrics.ObserveResolution(res, time.Since(start))

	sentAt := msg.SentAt
	if sentAt.IsZero() {
		sentAt = t.clock.Now()
	}

	t.logger.Debug("diary entry resolved",
		"user_id", msg.UserID,
		"message_id", msg.MessageID,
		"location", res.Location,
		"tier", res.Tier.String(),
		"method", res.Method.String(),
	)

	return domain.TitledEntry{
		DiaryMessage: msg,
		Location:     res.Location,
		Display:      t.resolver.Dictionary().DisplayName(res.Location),
		Tier:         res.Tier,
		Matched:      res.Matched,
		Title:        t.titles.Build(sentAt, res),
		ResolvedAt:   t.clock.Now().UTC(),
	}, nil
}
