// Package repository implements the durable store on Postgres. All
// uniqueness enforcement lives in the database's unique constraints; the
// repository itself holds no cross-request state.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/mkarpov/linkstore/internal/fingerprint"
	"github.com/mkarpov/linkstore/internal/storage"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// One statement per entry: the pgx stdlib driver runs the extended
// protocol, which rejects multi-statement strings.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS url_records (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		code TEXT NOT NULL,
		original_url TEXT NOT NULL,
		content_digest BYTEA NOT NULL,
		CONSTRAINT url_records_code_key UNIQUE (code),
		CONSTRAINT url_records_content_digest_key UNIQUE (content_digest)
	);`,
	`CREATE TABLE IF NOT EXISTS url_aliases (
		alias_code TEXT PRIMARY KEY,
		target_id BIGINT NOT NULL REFERENCES url_records (id)
	);`,
	`CREATE TABLE IF NOT EXISTS bloom_snapshots (
		name TEXT PRIMARY KEY,
		data BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE OR REPLACE VIEW short_codes AS
		SELECT code, original_url, 0 AS priority, id AS ord
		FROM url_records
		UNION ALL
		SELECT a.alias_code, u.original_url, 1 AS priority, a.target_id AS ord
		FROM url_aliases a
		JOIN url_records u ON u.id = a.target_id;`,
}

// InitDB opens a pgx-backed sql.DB and verifies connectivity.
func InitDB(dsn string, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, &storage.ConnectionError{Err: err}
	}

	if err := db.Ping(); err != nil {
		return nil, &storage.ConnectionError{Err: err}
	}

	logger.Info("database connected")
	return db, nil
}

// LinkRepository is the Postgres implementation of storage.Store.
type LinkRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func CreateLinkRepository(db *sql.DB, logger *zap.Logger) *LinkRepository {
	return &LinkRepository{
		db:     db,
		logger: logger,
	}
}

// Migrate applies the schema. Idempotent; safe to run on every start.
func (r *LinkRepository) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return &storage.MigrationError{Err: err}
		}
	}
	return nil
}

// Upsert is the race-free insert-or-retrieve: a single conditional insert
// that yields a row only when this caller won, then a fallback read when
// the digest already existed. The code unique index is the one failure
// that surfaces as ErrDuplicate; a digest conflict is normal dedup.
func (r *LinkRepository) Upsert(ctx context.Context, code, original string) (storage.Outcome, *storage.URLRecord, error) {
	digest := fingerprint.Sum(original)

	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO url_records (code, original_url, content_digest)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (content_digest) DO NOTHING
		 RETURNING id;`,
		code, original, digest,
	).Scan(&id)

	switch {
	case err == nil:
		return storage.OutcomeCreated, &storage.URLRecord{
			ID:       id,
			Code:     code,
			Original: original,
			Digest:   digest,
		}, nil
	case errors.Is(err, sql.ErrNoRows):
		// Insert did nothing: a record with this digest already exists.
	default:
		if isUniqueViolation(err, "url_records_code_key") {
			return 0, nil, storage.ErrDuplicate
		}
		return 0, nil, &storage.QueryError{Op: "upsert", Err: err}
	}

	record, err := r.findByDigest(ctx, digest)
	if err != nil {
		return 0, nil, err
	}
	return storage.OutcomeExisting, record, nil
}

func (r *LinkRepository) FindByURL(ctx context.Context, original string) (*storage.URLRecord, error) {
	return r.findByDigest(ctx, fingerprint.Sum(original))
}

func (r *LinkRepository) findByDigest(ctx context.Context, digest []byte) (*storage.URLRecord, error) {
	var record storage.URLRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT id, code, original_url FROM url_records WHERE content_digest = $1;`,
		digest,
	).Scan(&record.ID, &record.Code, &record.Original)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, &storage.QueryError{Op: "find by digest", Err: err}
	}

	record.Digest = digest
	return &record, nil
}

// ListCodes pages over the union view: canonical codes in insertion order
// first, then aliases.
func (r *LinkRepository) ListCodes(ctx context.Context, offset, limit uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT code FROM short_codes ORDER BY priority, ord, code LIMIT $1 OFFSET $2;`,
		limit, offset,
	)
	if err != nil {
		return nil, &storage.QueryError{Op: "list codes", Err: err}
	}
	defer rows.Close()

	codes := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, &storage.QueryError{Op: "list codes", Err: err}
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, &storage.QueryError{Op: "list codes", Err: err}
	}

	return codes, nil
}

func (r *LinkRepository) AddAlias(ctx context.Context, aliasCode string, targetID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO url_aliases (alias_code, target_id) VALUES ($1, $2);`,
		aliasCode, targetID,
	)
	if err != nil {
		if isUniqueViolation(err, "url_aliases_pkey") {
			return storage.ErrDuplicate
		}
		// A foreign key failure lands here: a dangling alias is a data
		// bug, not a condition callers recover from.
		return &storage.QueryError{Op: "add alias", Err: err}
	}
	return nil
}

func (r *LinkRepository) Resolve(ctx context.Context, code string) (string, error) {
	var original string
	err := r.db.QueryRowContext(ctx,
		`SELECT original_url FROM short_codes WHERE code = $1 ORDER BY priority LIMIT 1;`,
		code,
	).Scan(&original)

	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", &storage.QueryError{Op: "resolve", Err: err}
	}

	return original, nil
}

func (r *LinkRepository) LoadSnapshot(ctx context.Context, name string) (*storage.BloomSnapshot, error) {
	snapshot := storage.BloomSnapshot{Name: name}
	err := r.db.QueryRowContext(ctx,
		`SELECT data, updated_at FROM bloom_snapshots WHERE name = $1;`,
		name,
	).Scan(&snapshot.Data, &snapshot.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, &storage.QueryError{Op: "load snapshot", Err: err}
	}

	return &snapshot, nil
}

func (r *LinkRepository) SaveSnapshot(ctx context.Context, name string, data []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bloom_snapshots (name, data, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (name) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = now();`,
		name, data,
	)
	if err != nil {
		return &storage.QueryError{Op: "save snapshot", Err: err}
	}
	return nil
}

func (r *LinkRepository) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// isUniqueViolation reports whether err is a Postgres unique violation on
// the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		pgErr.ConstraintName == constraint
}
