package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"smartattendance/backend/foundation/web"
)

type Config struct {
	User         string        `conf:"default:postgres"`
	Password     string        `conf:"default:postgres,noprint"`
	Host         string        `conf:"default:localhost:5432"`
	Name         string        `conf:"default:attendance"`
	DisableTLS   bool          `conf:"default:true"`
	Debug        bool          `conf:"default:false"`
	Migrate      bool          `conf:"default:true"`
	DialTimeout  time.Duration `conf:"default:5s"`
	MaxOpenConns int           `conf:"default:10"`
}

// Database embeds a bun.DB; repositories embed a *Database.
type Database struct {
	*bun.DB
}

func New(cfg Config) (*Database, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s", cfg.User, cfg.Password, cfg.Host, cfg.Name)
	if cfg.DisableTLS {
		dsn += "?sslmode=disable"
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithDialTimeout(cfg.DialTimeout),
	))
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)

	db := bun.NewDB(sqldb, pgdialect.New())
	db.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithEnabled(cfg.Debug),
		bundebug.WithVerbose(true),
	))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Wrap(err, "connecting to postgres")
	}

	return &Database{DB: db}, nil
}

// ValidateStruct checks that the named fields of request are set.
func (d Database) ValidateStruct(request interface{}, fields ...string) error {
	return web.ValidateStruct(request, fields...)
}

// StatusCheck reports whether the database answers a trivial query.
func (d Database) StatusCheck(ctx context.Context) error {
	var ok bool
	if err := d.QueryRowContext(ctx, "SELECT true").Scan(&ok); err != nil {
		return web.NewRequestError(errors.Wrap(err, "postgres status check"), http.StatusServiceUnavailable)
	}
	return nil
}
