// Package latest keeps the latest-event pointer of each modality in Redis
// under the keys latestPlate and latestRFID.
package latest

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"smartattendance/backend/internal/entity"
	"smartattendance/backend/internal/repository"
)

type Repository struct {
	client *redis.Client
	prefix string
}

func NewRepository(client *redis.Client, prefix string) *Repository {
	return &Repository{client: client, prefix: prefix}
}

func (r Repository) key(modality entity.Modality) string {
	return r.prefix + modality.LatestKey()
}

// SetLatest overwrites the pointer; there is no history.
func (r Repository) SetLatest(ctx context.Context, modality entity.Modality, event entity.LatestEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "encoding latest event")
	}

	if err := r.client.Set(ctx, r.key(modality), b, 0).Err(); err != nil {
		return errors.Wrap(err, "writing latest event")
	}

	return nil
}

func (r Repository) GetLatest(ctx context.Context, modality entity.Modality) (entity.LatestEvent, error) {
	b, err := r.client.Get(ctx, r.key(modality)).Bytes()
	if errors.Is(err, redis.Nil) {
		return entity.LatestEvent{}, repository.ErrNotFound
	}
	if err != nil {
		return entity.LatestEvent{}, errors.Wrap(err, "reading latest event")
	}

	var event entity.LatestEvent
	if err := json.Unmarshal(b, &event); err != nil {
		return entity.LatestEvent{}, errors.Wrap(err, "decoding latest event")
	}

	return event, nil
}
