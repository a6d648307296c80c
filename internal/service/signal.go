package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/amberflux/lorepo"
	"github.com/amberflux/lorepo/internal/domain"
)

type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, event lorepo.Event) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, domain.LifecycleChannel, jsonstr).Err()
	if err != nil {
		return err
	}

	return nil
}

// Realtime streams lifecycle events to output until ctx is canceled. The
// input channel carries collection filter updates; an empty filter passes
// everything.
func (s *SignalService) Realtime(ctx context.Context, input <-chan []string, output chan<- lorepo.Event) {
	sub := s.rdb.Subscribe(ctx, domain.LifecycleChannel)
	defer sub.Close()

	messages := sub.Channel()
	filter := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			return
		case collections, ok := <-input:
			if !ok {
				return
			}
			filter = map[string]bool{}
			for _, collection := range collections {
				filter[collection] = true
			}
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event lorepo.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.ErrorContext(ctx, "malformed lifecycle event",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}
			if len(filter) > 0 && !filter[event.Collection] {
				continue
			}
			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}
