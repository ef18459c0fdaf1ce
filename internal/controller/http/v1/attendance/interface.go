package attendance

import (
	"context"

	"smartattendance/backend/internal/entity"
	"smartattendance/backend/internal/repository"
)

type Attendance interface {
	GetAttendance(ctx context.Context, date, uid string) (entity.Attendance, error)
	ListAttendance(ctx context.Context, filter repository.AttendanceFilter) ([]entity.Attendance, int, error)
}

type Latest interface {
	GetLatest(ctx context.Context, modality entity.Modality) (entity.LatestEvent, error)
}
