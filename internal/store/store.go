package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autorepair/config"
	"autorepair/internal/util"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations
var migrationsFS embed.FS

func init() {
	sqlx.BindDriver(config.DriverSQLite, sqlx.QUESTION)
}

// Queries runs statements against either the pool or an open transaction.
type Queries struct {
	ext    sqlx.ExtContext
	driver string
	sb     sq.StatementBuilderType
	inTx   bool
}

type Store struct {
	*Queries
	db     *sqlx.DB
	cfg    config.DatabaseConfig
	logger *zap.Logger
}

// NewStore opens the database, applies migrations and returns the store
func NewStore(cfg config.DatabaseConfig) (*Store, error) {
	var (
		db  *sqlx.DB
		err error
	)

	switch cfg.Driver {
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.DSN); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		db, err = sqlx.Connect(config.DriverSQLite, SQLiteDSN(cfg.DSN))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		// One connection keeps writers serialized on the single file.
		db.SetMaxOpenConns(1)
	case config.DriverPostgres:
		db, err = sqlx.Connect(config.DriverPostgres, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		Queries: newQueries(db, cfg.Driver, false),
		db:      db,
		cfg:     cfg,
		logger:  util.GetLogger(),
	}

	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// SQLiteDSN adds the pragmas every connection needs to a database file path.
func SQLiteDSN(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

func newQueries(ext sqlx.ExtContext, driver string, inTx bool) *Queries {
	var placeholder sq.PlaceholderFormat = sq.Question
	if driver == config.DriverPostgres {
		placeholder = sq.Dollar
	}
	return &Queries{
		ext:    ext,
		driver: driver,
		sb:     sq.StatementBuilder.PlaceholderFormat(placeholder),
		inTx:   inTx,
	}
}

func (s *Store) migrate(ctx context.Context) error {
	dialect := goose.DialectSQLite3
	if s.cfg.Driver == config.DriverPostgres {
		dialect = goose.DialectPostgres
	}

	fsys, err := fs.Sub(migrationsFS, "migrations/"+s.cfg.Driver)
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	provider, err := goose.NewProvider(dialect, s.db.DB, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		s.logger.Info("Migration applied",
			zap.String("source", r.Source.Path),
			zap.Duration("duration", r.Duration),
		)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the configured database driver name
func (s *Store) Driver() string {
	return s.cfg.Driver
}

// Path returns the database file for the sqlite driver
func (s *Store) Path() string {
	if s.cfg.Driver != config.DriverSQLite {
		return ""
	}
	return s.cfg.DSN
}

// Ping verifies the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Query runs a read-only statement and scans all rows into dest
func (s *Store) Query(ctx context.Context, dest interface{}, statement string, args ...interface{}) error {
	return s.selectAll(ctx, dest, statement, args...)
}

// Exec runs a single mutating statement in auto-commit mode
func (s *Store) Exec(ctx context.Context, statement string, args ...interface{}) (int64, error) {
	res, err := s.exec(ctx, statement, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// WithTx runs fn inside one transaction. It commits when fn returns nil and
// otherwise rolls back and returns fn's error as is. A panic rolls back and
// propagates.
func (s *Store) WithTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(newQueries(tx, s.cfg.Driver, true)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (q *Queries) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.GetContext(ctx, q.ext, dest, q.ext.Rebind(query), args...)
}

func (q *Queries) selectAll(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, q.ext, dest, q.ext.Rebind(query), args...)
}

func (q *Queries) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return q.ext.ExecContext(ctx, q.ext.Rebind(query), args...)
}

func (q *Queries) getBuilt(ctx context.Context, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	return sqlx.GetContext(ctx, q.ext, dest, query, args...)
}

func (q *Queries) selectBuilt(ctx context.Context, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	return sqlx.SelectContext(ctx, q.ext, dest, query, args...)
}

func (q *Queries) execBuilt(ctx context.Context, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}
	res, err := q.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// lockClause returns the row lock suffix for reads inside a postgres transaction.
// SQLite already serializes writers on its single connection.
func (q *Queries) lockClause() string {
	if q.inTx && q.driver == config.DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likePattern turns a keyword into a substring pattern with its wildcards escaped.
func likePattern(keyword string) string {
	return "%" + likeEscaper.Replace(keyword) + "%"
}

// containsAny matches rows where any column contains keyword. SQLite's LIKE
// folds ASCII case only and compares other characters as is; Postgres uses ILIKE.
func (q *Queries) containsAny(keyword string, columns ...string) sq.Or {
	op := " LIKE ? ESCAPE '\\'"
	if q.driver == config.DriverPostgres {
		op = " ILIKE ? ESCAPE '\\'"
	}
	pattern := likePattern(keyword)
	or := make(sq.Or, 0, len(columns))
	for _, col := range columns {
		or = append(or, sq.Expr(col+op, pattern))
	}
	return or
}

func now() time.Time {
	return time.Now().UTC()
}

func isUniqueViolation(err error) bool {
	return isConstraintViolation(err, "23505", "UNIQUE")
}

func isForeignKeyViolation(err error) bool {
	return isConstraintViolation(err, "23503", "FOREIGN KEY")
}

// isConstraintViolation matches a postgres SQLSTATE or a sqlite constraint
// error whose message names the constraint kind.
func isConstraintViolation(err error, pgCode pq.ErrorCode, sqliteKind string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgCode
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT &&
			strings.Contains(liteErr.Error(), sqliteKind)
	}
	return false
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}
