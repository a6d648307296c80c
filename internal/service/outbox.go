package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/amberflux/lorepo"
	"github.com/amberflux/lorepo/cuid"
	"github.com/amberflux/lorepo/internal/domain"
	"github.com/amberflux/lorepo/internal/usecase"
)

const (
	opPublish       = "publish"
	opUpdate        = "update"
	opDelete        = "delete"
	opDeleteRelease = "deleteRelease"

	maxIndexAttempts = 5
)

// IndexOperation is one queued mutation against the search index.
type IndexOperation struct {
	ID               string                    `json:"id"`
	Kind             string                    `json:"kind"`
	LearningObjectID string                    `json:"learningObjectId"`
	Document         lorepo.SubmissionDocument `json:"document,omitempty"`
	Updates          map[string]any            `json:"updates,omitempty"`
	Attempts         int                       `json:"attempts"`
}

// listQueue is the slice of the redis client the outbox uses. *redis.Client
// satisfies it.
type listQueue interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// OutboxService queues search-index mutations in redis and applies them from
// a background worker, so a slow or unreachable index never blocks a
// lifecycle transition. Operations that keep failing are parked on a
// dead-letter list.
type OutboxService struct {
	rdb   listQueue
	index usecase.SearchIndex
}

func NewOutboxService(queue listQueue, index usecase.SearchIndex) *OutboxService {
	return &OutboxService{
		rdb:   queue,
		index: index,
	}
}

func (s *OutboxService) enqueue(ctx context.Context, op IndexOperation) error {
	op.ID = cuid.NewRandom().String()
	jsonstr, err := json.Marshal(op)
	if err != nil {
		return errors.Wrap(err, "failed to marshal index operation")
	}

	err = s.rdb.LPush(ctx, domain.SearchOutboxKey, jsonstr).Err()
	if err != nil {
		return errors.Wrap(err, "failed to enqueue index operation")
	}

	return nil
}

func (s *OutboxService) PublishSubmission(ctx context.Context, doc lorepo.SubmissionDocument) error {
	return s.enqueue(ctx, IndexOperation{
		Kind:             opPublish,
		LearningObjectID: doc.ID,
		Document:         doc,
	})
}

func (s *OutboxService) UpdateSubmission(ctx context.Context, id string, updates map[string]any) error {
	return s.enqueue(ctx, IndexOperation{
		Kind:             opUpdate,
		LearningObjectID: id,
		Updates:          updates,
	})
}

func (s *OutboxService) DeleteSubmission(ctx context.Context, id string) error {
	return s.enqueue(ctx, IndexOperation{
		Kind:             opDelete,
		LearningObjectID: id,
	})
}

func (s *OutboxService) DeletePreviousRelease(ctx context.Context, id string) error {
	return s.enqueue(ctx, IndexOperation{
		Kind:             opDeleteRelease,
		LearningObjectID: id,
	})
}

// Run drains the outbox until ctx is canceled. Intended to run as a single
// goroutine per process.
func (s *OutboxService) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		result, err := s.rdb.BRPop(ctx, 5*time.Second, domain.SearchOutboxKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			slog.ErrorContext(ctx, "failed to pop index operation",
				slog.String("error", err.Error()),
				slog.String("module", "outbox"),
			)
			time.Sleep(time.Second)
			continue
		}

		// BRPop returns [key, value]
		if len(result) != 2 {
			continue
		}

		var op IndexOperation
		if err := json.Unmarshal([]byte(result[1]), &op); err != nil {
			slog.ErrorContext(ctx, "malformed index operation",
				slog.String("error", err.Error()),
				slog.String("module", "outbox"),
			)
			continue
		}

		if err := s.apply(ctx, op); err != nil {
			s.retry(ctx, op, err)
		}
	}
}

func (s *OutboxService) apply(ctx context.Context, op IndexOperation) error {
	switch op.Kind {
	case opPublish:
		return s.index.PublishSubmission(ctx, op.Document)
	case opUpdate:
		return s.index.UpdateSubmission(ctx, op.LearningObjectID, op.Updates)
	case opDelete:
		return s.index.DeleteSubmission(ctx, op.LearningObjectID)
	case opDeleteRelease:
		return s.index.DeletePreviousRelease(ctx, op.LearningObjectID)
	default:
		return errors.New("unknown index operation kind: " + op.Kind)
	}
}

func (s *OutboxService) retry(ctx context.Context, op IndexOperation, cause error) {
	op.Attempts++

	if op.Attempts >= maxIndexAttempts {
		slog.ErrorContext(ctx, "index operation dead-lettered",
			slog.String("id", op.ID),
			slog.String("kind", op.Kind),
			slog.String("learningObjectId", op.LearningObjectID),
			slog.String("error", cause.Error()),
			slog.String("module", "outbox"),
		)
		jsonstr, err := json.Marshal(op)
		if err != nil {
			return
		}
		s.rdb.LPush(ctx, domain.SearchDeadLetterKey, jsonstr)
		return
	}

	slog.WarnContext(ctx, "index operation failed, requeueing",
		slog.String("id", op.ID),
		slog.String("kind", op.Kind),
		slog.Int("attempts", op.Attempts),
		slog.String("error", cause.Error()),
		slog.String("module", "outbox"),
	)

	jsonstr, err := json.Marshal(op)
	if err != nil {
		return
	}
	s.rdb.LPush(ctx, domain.SearchOutboxKey, jsonstr)
}
