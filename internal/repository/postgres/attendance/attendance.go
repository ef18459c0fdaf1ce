package attendance

import (
	"context"
	"database/sql"
	"net/http"
	"time"

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

func (r Repository) GetAttendance(ctx context.Context, date, uid string) (entity.Attendance, error) {
	var detail entity.Attendance

	err := r.NewSelect().Model(&detail).Where("work_day = ? AND uid = ?", date, uid).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Attendance{}, repository.ErrNotFound
	}
	if err != nil {
		return entity.Attendance{}, errors.Wrap(err, "selecting attendance")
	}

	return detail, nil
}

// CheckIn inserts an open record unless one already exists for the slot.
func (r Repository) CheckIn(ctx context.Context, record entity.Attendance) error {
	res, err := r.checkInQuery(&record).Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "inserting attendance")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "inserting attendance")
	}
	if n == 0 {
		return repository.ErrConflict
	}

	return nil
}

// CheckOut closes the record of the slot if it is still open.
func (r Repository) CheckOut(ctx context.Context, date, uid string, out entity.CheckOut) error {
	res, err := r.checkOutQuery(date, uid, out, time.Now()).Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "updating attendance")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "updating attendance")
	}
	if n == 0 {
		if _, err := r.GetAttendance(ctx, date, uid); err != nil {
			return err
		}
		return repository.ErrConflict
	}

	return nil
}

func (r Repository) checkInQuery(record *entity.Attendance) *bun.InsertQuery {
	record.ID = 0
	record.Checkout, record.WorkedHours, record.Status = nil, nil, nil
	record.CreatedAt = time.Time{}

	return r.NewInsert().
		Model(record).
		On("CONFLICT (work_day, uid) DO NOTHING")
}

func (r Repository) checkOutQuery(date, uid string, out entity.CheckOut, now time.Time) *bun.UpdateQuery {
	return r.NewUpdate().
		Table("attendance").
		Set("checkout = ?", out.Checkout).
		Set("worked_hours = ?", out.WorkedHours).
		Set("status = ?", out.Status).
		Set("punctuality = ?", out.Punctuality).
		Set("shift = ?", out.Shift).
		Set("updated_at = ?", now).
		Where("work_day = ? AND uid = ? AND checkout IS NULL", date, uid)
}

func (r Repository) ListAttendance(ctx context.Context, filter repository.AttendanceFilter) ([]entity.Attendance, int, error) {
	list := make([]entity.Attendance, 0)

	q := r.NewSelect().Model(&list).Where("work_day = ?", filter.Date)

	if filter.Search != nil {
		search := "%" + *filter.Search + "%"
		q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("uid ILIKE ?", search).
				WhereOr("name ILIKE ?", search).
				WhereOr("plate ILIKE ?", search)
		})
	}
	if filter.Shift != nil {
		q.Where("shift = ?", *filter.Shift)
	}
	if filter.Punctuality != nil {
		q.Where("punctuality = ?", *filter.Punctuality)
	}
	if filter.Status != nil {
		q.Where("status = ?", *filter.Status)
	}
	if filter.Open != nil {
		if *filter.Open {
			q.Where("checkout IS NULL")
		} else {
			q.Where("checkout IS NOT NULL")
		}
	}

	offset, limit := filter.Window()
	if limit > 0 {
		q.Limit(limit)
	}
	if offset > 0 {
		q.Offset(offset)
	}
	q.Order("checkin ASC", "uid ASC")

	count, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "selecting attendance"), http.StatusInternalServerError)
	}

	return list, count, nil
}
