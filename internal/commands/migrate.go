package commands

import (
	"context"
	"log"
	"strings"

	"github.com/pkg/errors"

	"smartattendance/backend/internal/pkg/repository/postgresql"
)

type Scheme struct {
	Index       int
	Description string
	Query       string
}

var scheme = []Scheme{
	{
		Index:       1,
		Description: "CREATE TYPE \"modality\" AS ENUM",
		Query: `
        DO $$ BEGIN
            CREATE TYPE "modality" AS ENUM ('plate', 'rfid');
        EXCEPTION WHEN duplicate_object THEN NULL;
        END $$;`,
	},
	{
		Index:       2,
		Description: "Create table: identity.",
		Query: `
        CREATE TABLE IF NOT EXISTS identity (
            id bigserial primary key,
            modality modality not null,
            lookup_key text not null,
            uid text not null default '',
            name text not null default '',
            jabatan text not null default '',
            plate text not null default '',
            created_at timestamp not null default now(),
            updated_at timestamp,
            UNIQUE (modality, lookup_key)
        );`,
	},
	{
		Index:       3,
		Description: "Create table: attendance.",
		Query: `
        CREATE TABLE IF NOT EXISTS attendance (
            id bigserial primary key,
            work_day varchar(10) not null,
            uid text not null,
            name text not null default '',
            jabatan text not null default '',
            plate text not null default '',
            shift varchar(1) not null,
            punctuality varchar(16) not null,
            checkin varchar(8) not null,
            checkout varchar(8),
            worked_hours text,
            status varchar(16),
            created_at timestamp not null default now(),
            updated_at timestamp,
            UNIQUE (work_day, uid)
        );`,
	},
	{
		Index:       4,
		Description: "Create index: attendance work_day.",
		Query: `
        CREATE INDEX IF NOT EXISTS attendance_work_day_idx ON attendance (work_day, checkin);`,
	},
}

// MigrateUP applies every scheme entry above the recorded version. A
// failing entry marks the version dirty and is retried on the next run.
func MigrateUP(ctx context.Context, db *postgresql.Database, log *log.Logger) error {
	var (
		version int
		dirty   bool
		er      *string
	)
	err := db.QueryRowContext(ctx, "SELECT version, dirty, error FROM schema_migrations").Scan(&version, &dirty, &er)
	if err != nil {
		if !strings.Contains(err.Error(), "42P01") {
			return errors.Wrap(err, "migrate schema_migrations scan")
		}
		if _, err = db.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS schema_migrations (version int not null, dirty bool not null, error text);
				DELETE FROM schema_migrations;
				INSERT INTO schema_migrations (version, dirty) values (0, false);
			`); err != nil {
			return errors.Wrap(err, "migrate schema_migrations create")
		}
		version = 0
		dirty = false
	}

	if dirty {
		log.Printf("migrate: retrying dirty version %d (last error: %s)", version, deref(er))
		for _, s := range scheme {
			if s.Index == version {
				if err := apply(ctx, db, s); err != nil {
					return err
				}
			}
		}
	}

	for _, s := range scheme {
		if s.Index <= version {
			continue
		}
		if err := apply(ctx, db, s); err != nil {
			return err
		}
		log.Printf("migrate: %d %s", s.Index, s.Description)
	}

	return nil
}

func apply(ctx context.Context, db *postgresql.Database, s Scheme) error {
	if _, err := db.ExecContext(ctx, s.Query); err != nil {
		if _, uerr := db.ExecContext(ctx, `UPDATE schema_migrations SET error = ?, version = ?, dirty = true`, err.Error(), s.Index); uerr != nil {
			return errors.Wrap(uerr, "migrate mark dirty")
		}
		return errors.Wrapf(err, "migrate version %d", s.Index)
	}

	if _, err := db.ExecContext(ctx, `UPDATE schema_migrations SET version = ?, dirty = false, error = null`, s.Index); err != nil {
		return errors.Wrap(err, "migrate set version")
	}

	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
