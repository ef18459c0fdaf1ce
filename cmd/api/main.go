package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"smartattendance/backend/foundation/web"
	"smartattendance/backend/internal/commands"
	"smartattendance/backend/internal/pkg/config"
	"smartattendance/backend/internal/pkg/repository/postgresql"
	"smartattendance/backend/internal/pkg/repository/redisdb"
	"smartattendance/backend/internal/repository/memory"
	"smartattendance/backend/internal/repository/postgres/attendance"
	"smartattendance/backend/internal/repository/postgres/identity"
	"smartattendance/backend/internal/repository/redis/latest"
	"smartattendance/backend/internal/repository/redis/lock"
	"smartattendance/backend/internal/router"
	"smartattendance/backend/internal/service/engine"
	"smartattendance/backend/internal/service/ocr"
	"smartattendance/backend/internal/service/plate"
	"smartattendance/backend/internal/service/shift"
	"smartattendance/backend/internal/service/snapshot"

	attendance_controller "smartattendance/backend/internal/controller/http/v1/attendance"
	identity_controller "smartattendance/backend/internal/controller/http/v1/identity"
)

func main() {
	log := log.New(os.Stdout, "ATTENDANCE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	if err := run(log); err != nil {
		if errors.Is(err, config.ErrHelpWanted) {
			return
		}
		log.Println("main: error:", err)
		os.Exit(1)
	}
}

type stores struct {
	identities identity_controller.Identity
	records    interface {
		engine.RecordStore
		attendance_controller.Attendance
	}
	latest interface {
		engine.LatestStore
		attendance_controller.Latest
	}
	locker engine.Locker
	health func(ctx context.Context) error
	close  func()
}

func run(log *log.Logger) error {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		return err
	}
	log.Printf("main: config:\n%v\n", cfg)

	policy, err := shift.LoadPolicy(cfg.Shift.PolicyFile)
	if err != nil {
		return errors.Wrap(err, "loading shift policy")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openStores(ctx, log, cfg)
	if err != nil {
		return err
	}
	defer s.close()

	eng := engine.NewEngine(log, policy, s.identities, s.records, s.latest, s.locker)
	ring := snapshot.NewRing(cfg.Plate.Snapshots)
	plates := plate.NewService(log, ocr.NewClient(cfg.OCR), eng, ring, cfg.Plate.Method, cfg.Plate.MaxWidth)

	app := web.NewApp(log)
	router.NewRouter(app, router.Deps{
		Identities: s.identities,
		Attendance: s.records,
		Latest:     s.latest,
		Engine:     eng,
		Plate:      plates,
		Snapshots:  ring,
		Health:     s.health,
	}, cfg.Origins()).Init()

	return app.Serve(ctx, &http.Server{
		Addr:         cfg.Web.Host,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
	}, cfg.Web.ShutdownTimeout)
}

func openStores(ctx context.Context, log *log.Logger, cfg config.Config) (stores, error) {
	if cfg.Storage == config.StorageMemory {
		log.Println("main: using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return stores{
			identities: store,
			records:    store,
			latest:     store,
			locker:     engine.NewLocalLocker(),
			close:      func() {},
		}, nil
	}

	db, err := postgresql.New(cfg.DB)
	if err != nil {
		return stores{}, err
	}
	if cfg.DB.Migrate {
		if err := commands.MigrateUP(ctx, db, log); err != nil {
			db.Close()
			return stores{}, err
		}
	}

	rdb, err := redisdb.New(cfg.Redis)
	if err != nil {
		db.Close()
		return stores{}, err
	}

	prefix := cfg.KeyPrefix + ":"
	return stores{
		identities: identity.NewRepository(db),
		records:    attendance.NewRepository(db),
		latest:     latest.NewRepository(rdb, prefix),
		locker:     lock.NewLocker(rdb, log, prefix, cfg.Lock),
		health: func(ctx context.Context) error {
			if err := db.StatusCheck(ctx); err != nil {
				return err
			}
			if err := rdb.Ping(ctx).Err(); err != nil {
				return web.NewRequestError(errors.Wrap(err, "redis status check"), http.StatusServiceUnavailable)
			}
			return nil
		},
		close: func() {
			rdb.Close()
			db.Close()
		},
	}, nil
}
