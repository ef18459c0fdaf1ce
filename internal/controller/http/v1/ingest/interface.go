package ingest

import (
	"context"

	"smartattendance/backend/internal/service/engine"
	"smartattendance/backend/internal/service/plate"
)

type Plate interface {
	Ingest(ctx context.Context, raw []byte) (plate.Result, error)
}

type Engine interface {
	Process(ctx context.Context, ev engine.Event) (engine.Result, error)
}
