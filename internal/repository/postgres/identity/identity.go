package identity

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"smartattendance/backend/foundation/web"
	"smartattendance/backend/internal/entity"
	"smartattendance/backend/internal/pkg/repository/postgresql"
	"smartattendance/backend/internal/repository"
)

type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

func (r Repository) GetIdentity(ctx context.Context, modality entity.Modality, key string) (entity.Identity, error) {
	var detail entity.Identity

	err := r.NewSelect().Model(&detail).Where("modality = ? AND lookup_key = ?", modality, key).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Identity{}, repository.ErrNotFound
	}
	if err != nil {
		return entity.Identity{}, errors.Wrap(err, "selecting identity")
	}

	return detail, nil
}

// SaveIdentity creates the identity document or replaces the one stored
// under the same modality and key.
func (r Repository) SaveIdentity(ctx context.Context, doc entity.Identity) (entity.Identity, error) {
	if err := r.ValidateStruct(&doc, "Modality", "LookupKey"); err != nil {
		return entity.Identity{}, err
	}
	_, err := r.saveQuery(&doc).Exec(ctx)
	if err != nil {
		return entity.Identity{}, web.NewRequestError(errors.Wrap(err, "saving identity"), http.StatusInternalServerError)
	}

	return doc, nil
}

func (r Repository) saveQuery(doc *entity.Identity) *bun.InsertQuery {
	doc.ID = 0

	return r.NewInsert().
		Model(doc).
		On("CONFLICT (modality, lookup_key) DO UPDATE").
		Set("uid = EXCLUDED.uid").
		Set("name = EXCLUDED.name").
		Set("jabatan = EXCLUDED.jabatan").
		Set("plate = EXCLUDED.plate").
		Set("updated_at = now()").
		Returning("id, created_at, updated_at")
}

func (r Repository) ListIdentities(ctx context.Context, modality entity.Modality) ([]entity.Identity, error) {
	list := make([]entity.Identity, 0)

	q := r.NewSelect().Model(&list).Order("modality ASC", "lookup_key ASC")
	if modality != "" {
		q.Where("modality = ?", modality)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, web.NewRequestError(errors.Wrap(err, "selecting identities"), http.StatusInternalServerError)
	}

	return list, nil
}

func (r Repository) DeleteIdentity(ctx context.Context, modality entity.Modality, key string) error {
	res, err := r.NewDelete().
		Model((*entity.Identity)(nil)).
		Where("modality = ? AND lookup_key = ?", modality, key).
		Exec(ctx)
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "deleting identity"), http.StatusInternalServerError)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.ErrNotFound
	}

	return nil
}
