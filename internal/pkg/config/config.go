// Package config reads the service configuration from flags and ATTENDANCE_*
// environment variables.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/ardanlabs/conf"
	"github.com/pkg/errors"

	"smartattendance/backend/internal/pkg/repository/postgresql"
	"smartattendance/backend/internal/pkg/repository/redisdb"
	"smartattendance/backend/internal/repository/redis/lock"
	"smartattendance/backend/internal/service/ocr"
)

const Namespace = "ATTENDANCE"

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Web struct {
		Host            string        `conf:"default:0.0.0.0:8000"`
		ReadTimeout     time.Duration `conf:"default:10s"`
		WriteTimeout    time.Duration `conf:"default:30s"`
		ShutdownTimeout time.Duration `conf:"default:10s"`
		// CorsOrigins is a comma separated list; * allows every origin.
		CorsOrigins string `conf:"default:*"`
	}
	Storage   string `conf:"default:memory,help:memory or postgres"`
	KeyPrefix string `conf:"default:attendance"`
	DB        postgresql.Config
	Redis     redisdb.Config
	Lock      lock.Config
	OCR       ocr.Config
	Plate     struct {
		Method    string `conf:"default:http"`
		MaxWidth  int    `conf:"default:1280"`
		Snapshots int    `conf:"default:5"`
	}
	Shift struct {
		PolicyFile string `conf:"help:yaml file overriding the default shift table"`
	}
}

// ErrHelpWanted is returned by Parse after printing usage for --help.
var ErrHelpWanted = conf.ErrHelpWanted

// Parse fills a Config from args and the environment. On --help the usage
// text is written to stdout and ErrHelpWanted is returned.
func Parse(args []string) (Config, error) {
	var cfg Config

	if err := conf.Parse(args, Namespace, &cfg); err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			usage, uerr := conf.Usage(Namespace, &cfg)
			if uerr != nil {
				return cfg, errors.Wrap(uerr, "generating config usage")
			}
			os.Stdout.WriteString(usage + "\n")
			return cfg, err
		}
		return cfg, errors.Wrap(err, "parsing config")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory, StoragePostgres:
	default:
		return errors.Errorf("storage %q must be %s or %s", c.Storage, StorageMemory, StoragePostgres)
	}
	if c.Plate.MaxWidth < 0 {
		return errors.New("plate max width must not be negative")
	}
	return nil
}

// Origins splits Web.CorsOrigins.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.Web.CorsOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// String renders the configuration without secrets for the startup log.
func (c Config) String() string {
	out, err := conf.String(&c)
	if err != nil {
		return err.Error()
	}
	return out
}
