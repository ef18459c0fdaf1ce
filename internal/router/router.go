package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smartattendance/backend/foundation/web"
	"smartattendance/backend/internal/middleware"

	attendance_controller "smartattendance/backend/internal/controller/http/v1/attendance"
	identity_controller "smartattendance/backend/internal/controller/http/v1/identity"
	ingest_controller "smartattendance/backend/internal/controller/http/v1/ingest"
	snapshots_controller "smartattendance/backend/internal/controller/http/v1/snapshots"
)

// Deps are the collaborators the controllers are built from.
type Deps struct {
	Identities identity_controller.Identity
	Attendance attendance_controller.Attendance
	Latest     attendance_controller.Latest
	Engine     ingest_controller.Engine
	Plate      ingest_controller.Plate
	Snapshots  snapshots_controller.Snapshots
	// Health reports whether the backing stores answer. Nil means always
	// healthy.
	Health func(ctx context.Context) error
	// Now is the clock for event timestamps and the default query date.
	Now func() time.Time
}

type Router struct {
	*web.App
	deps        Deps
	corsOrigins []string
}

func NewRouter(app *web.App, deps Deps, corsOrigins []string) *Router {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Router{app, deps, corsOrigins}
}

// Init registers every route.
func (r Router) Init() {
	r.HandleMethodNotAllowed = true
	r.Use(middleware.CORSMiddleware(r.corsOrigins))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Smart Attendance Server Running")
	})
	r.Get("/api/v1/health", r.health)

	// controller
	ingestController := ingest_controller.NewController(r.deps.Plate, r.deps.Engine, r.deps.Now)
	attendanceController := attendance_controller.NewController(r.deps.Attendance, r.deps.Latest, r.deps.Now)
	identityController := identity_controller.NewController(r.deps.Identities)
	snapshotsController := snapshots_controller.NewController(r.deps.Snapshots)

	// #ingest
	r.Post("/api/v1/ingest/plate", ingestController.Plate)
	r.Post("/api/v1/ingest/rfid", ingestController.RFID)
	// device firmware posts here
	r.Post("/upload", ingestController.Plate)
	r.Post("/rfid", ingestController.RFID)

	// #attendance
	r.Get("/api/v1/attendance/list", attendanceController.GetList)
	r.Get("/api/v1/attendance/export", attendanceController.Export)
	r.Get("/api/v1/attendance/latest/:modality", attendanceController.GetLatest)
	r.Get("/api/v1/attendance/detail/:date/:uid", attendanceController.GetDetail)

	// #identity
	r.Get("/api/v1/identity/list", identityController.GetList)
	r.Get("/api/v1/identity/badges", identityController.GetBadges)
	r.Post("/api/v1/identity/create", identityController.Save)
	r.Put("/api/v1/identity/create", identityController.Save)
	r.Get("/api/v1/identity/:modality/:key", identityController.GetDetail)
	r.Get("/api/v1/identity/:modality/:key/qrcode", identityController.GetQrCode)
	r.Delete("/api/v1/identity/:modality/:key", identityController.Delete)

	// #plate
	r.Get("/api/v1/plate/last", snapshotsController.GetLast)
	r.Get("/api/v1/plate/snapshots", snapshotsController.GetList)
	r.Get("/api/v1/plate/snapshots/:index/image", snapshotsController.GetImage)
}

func (r Router) health(c *web.Context) error {
	if r.deps.Health != nil {
		if err := r.deps.Health(c.Ctx); err != nil {
			return c.RespondError(err)
		}
	}
	return c.Respond(map[string]interface{}{
		"status": true,
	}, http.StatusOK)
}
