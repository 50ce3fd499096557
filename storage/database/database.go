// Package database opens and migrates the fake backend's SQL storage and defines the record
// repository shared by the in-memory and SQL implementations.
package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/trezcool/goose"
	_ "modernc.org/sqlite"

	"github.com/trezcool/masomo-console/core"
	appfs "github.com/trezcool/masomo-console/fs"
)

// Engines
const (
	EngineMemory   = "memory"
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
)

var ErrRecordNotFound = errors.New("record not found")

func init() {
	// modernc registers itself as "sqlite", unknown to sqlx
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

type (
	// Document is one record of a resource, as exchanged with clients.
	Document map[string]interface{}

	RecordRepository interface {
		ListRecords(ctx context.Context, resource string) ([]Document, error)
		GetRecord(ctx context.Context, resource string, id int) (Document, error)
		CreateRecord(ctx context.Context, resource string, doc Document) (Document, error)
		// UpdateRecord merges doc into the stored record (see Merge).
		UpdateRecord(ctx context.Context, resource string, id int, doc Document) (Document, error)
		DeleteRecord(ctx context.Context, resource string, id int) error
	}
)

// Merge copies the non-null fields of src into dst. The id is never overwritten.
func Merge(dst, src Document) Document {
	if dst == nil {
		dst = make(Document, len(src))
	}
	for k, v := range src {
		if k == "id" || v == nil {
			continue
		}
		dst[k] = v
	}
	return dst
}

// Clone copies the top level of doc.
func (doc Document) Clone() Document {
	c := make(Document, len(doc))
	for k, v := range doc {
		c[k] = v
	}
	return c
}

func driverName(engine string) (string, error) {
	switch engine {
	case EnginePostgres:
		return "postgres", nil
	case EngineSQLite:
		return "sqlite", nil
	}
	return "", errors.Errorf("unsupported database engine %q", engine)
}

func gooseDialect(engine string) string {
	if engine == EngineSQLite {
		return "sqlite3"
	}
	return engine
}

// Open connects to the SQL database configured in conf and waits for it to be ready.
func Open(conf *core.Config) (*sqlx.DB, error) {
	driver, err := driverName(conf.Database.Engine)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(driver, conf.Database.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if conf.Database.Engine == EngineSQLite {
		db.SetMaxOpenConns(1) // single writer; also keeps :memory: databases alive
	}
	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 10
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = db.Ping(); err == nil {
			return nil
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}
	return errors.Wrap(err, "DB ping timeout")
}

// Migrate runs a goose command ("up", "down", "status", ...) with the embedded migrations of engine.
func Migrate(db *sqlx.DB, engine, command string, args ...string) error {
	if err := goose.SetDialect(gooseDialect(engine)); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	if err := goose.RunFS(command, db.DB, appfs.FS, appfs.MigrationsDir(engine), args...); err != nil {
		return errors.Wrapf(err, "migrating database (%s)", command)
	}
	return nil
}
