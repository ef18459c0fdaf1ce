package identity

import (
	"context"

	"smartattendance/backend/internal/entity"
)

type Identity interface {
	GetIdentity(ctx context.Context, modality entity.Modality, key string) (entity.Identity, error)
	SaveIdentity(ctx context.Context, doc entity.Identity) (entity.Identity, error)
	ListIdentities(ctx context.Context, modality entity.Modality) ([]entity.Identity, error)
	DeleteIdentity(ctx context.Context, modality entity.Modality, key string) error
}
