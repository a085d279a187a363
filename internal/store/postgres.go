package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Document fields that hold numbers. Filter and sort expressions on these
// fields cast the jsonb text value to numeric.
var numericFields = map[string]bool{
	"price":        true,
	"discount":     true,
	"stock":        true,
	"rating":       true,
	"reviewsCount": true,
}

// Document fields that hold JSON arrays of strings.
var listFields = map[string]bool{
	"tags":             true,
	"additionalImages": true,
	"favorites":        true,
}

// DB wraps the pgx connection pool shared by all postgres collections.
type DB struct {
	Pool *pgxpool.Pool
}

// Open connects to postgres and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Close releases the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// Postgres is a Collection backed by a table of (id uuid, doc jsonb, rev bigint).
type Postgres[T Document] struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgres creates a postgres-backed collection over one of the known
// collection tables.
func NewPostgres[T Document](db *DB, table string) (*Postgres[T], error) {
	switch table {
	case CollectionProducts, CollectionUsers:
	default:
		return nil, fmt.Errorf("unknown collection %q", table)
	}
	return &Postgres[T]{pool: db.Pool, table: table}, nil
}

func (p *Postgres[T]) Find(ctx context.Context, q Query) ([]T, error) {
	var args []any
	sql := fmt.Sprintf("SELECT doc, rev FROM %s", p.table)
	if where := buildWhere(q.Filter, &args); where != "" {
		sql += " WHERE " + where
	}
	if q.Sort != "" {
		dir := "DESC"
		if q.Order == SortAsc {
			dir = "ASC"
		}
		// Tiebreak on id so equal sort keys page deterministically.
		sql += fmt.Sprintf(" ORDER BY %s %s, id", fieldExpr(q.Sort), dir)
	}
	if q.Skip > 0 {
		args = append(args, q.Skip)
		sql += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", p.table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var raw []byte
		var rev int64
		if err := rows.Scan(&raw, &rev); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", p.table, err)
		}
		doc, err := decodeDoc[T](raw, rev)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (p *Postgres[T]) Count(ctx context.Context, f Filter) (int64, error) {
	var args []any
	sql := fmt.Sprintf("SELECT count(*) FROM %s", p.table)
	if where := buildWhere(f, &args); where != "" {
		sql += " WHERE " + where
	}

	var n int64
	if err := p.pool.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", p.table, err)
	}
	return n, nil
}

func (p *Postgres[T]) FindByID(ctx context.Context, id string) (T, error) {
	var zero T
	if uuid.Validate(id) != nil {
		return zero, ErrNoDocument
	}

	var raw []byte
	var rev int64
	sql := fmt.Sprintf("SELECT doc, rev FROM %s WHERE id = $1", p.table)
	err := p.pool.QueryRow(ctx, sql, id).Scan(&raw, &rev)
	if errors.Is(err, pgx.ErrNoRows) {
		return zero, ErrNoDocument
	}
	if err != nil {
		return zero, fmt.Errorf("failed to get %s document: %w", p.table, err)
	}
	return decodeDoc[T](raw, rev)
}

func (p *Postgres[T]) Insert(ctx context.Context, doc T) (T, error) {
	var zero T
	meta := doc.DocumentMeta()
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return zero, fmt.Errorf("failed to marshal %s document: %w", p.table, err)
	}

	sql := fmt.Sprintf("INSERT INTO %s (id, doc, rev) VALUES ($1, $2, 1)", p.table)
	if _, err := p.pool.Exec(ctx, sql, meta.ID, raw); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return zero, ErrDuplicate
		}
		return zero, fmt.Errorf("failed to insert %s document: %w", p.table, err)
	}

	meta.Rev = 1
	return doc, nil
}

func (p *Postgres[T]) UpdateByID(ctx context.Context, doc T) (T, error) {
	var zero T
	meta := doc.DocumentMeta()

	raw, err := json.Marshal(doc)
	if err != nil {
		return zero, fmt.Errorf("failed to marshal %s document: %w", p.table, err)
	}

	sql := fmt.Sprintf("UPDATE %s SET doc = $2, rev = rev + 1 WHERE id = $1 AND rev = $3 RETURNING rev", p.table)
	err = p.pool.QueryRow(ctx, sql, meta.ID, raw, meta.Rev).Scan(&meta.Rev)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the document is gone or someone got there first.
		var exists bool
		check := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)", p.table)
		if err := p.pool.QueryRow(ctx, check, meta.ID).Scan(&exists); err != nil {
			return zero, fmt.Errorf("failed to check %s document: %w", p.table, err)
		}
		if exists {
			return zero, ErrRevMismatch
		}
		return zero, ErrNoDocument
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return zero, ErrDuplicate
		}
		return zero, fmt.Errorf("failed to update %s document: %w", p.table, err)
	}
	return doc, nil
}

func (p *Postgres[T]) DeleteByID(ctx context.Context, id string) (bool, error) {
	if uuid.Validate(id) != nil {
		return false, nil
	}
	sql := fmt.Sprintf("DELETE FROM %s WHERE id = $1", p.table)
	tag, err := p.pool.Exec(ctx, sql, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s document: %w", p.table, err)
	}
	return tag.RowsAffected() > 0, nil
}

func decodeDoc[T Document](raw []byte, rev int64) (T, error) {
	var zero T
	doc := reflect.New(reflect.TypeOf(zero).Elem()).Interface().(T)
	if err := json.Unmarshal(raw, doc); err != nil {
		return zero, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	doc.DocumentMeta().Rev = rev
	return doc, nil
}

// fieldExpr returns the SQL expression extracting a document field, cast to
// numeric for number-valued fields so ordering and comparisons behave.
func fieldExpr(field string) string {
	quoted := strings.ReplaceAll(field, "'", "''")
	if numericFields[field] {
		return fmt.Sprintf("(doc->>'%s')::numeric", quoted)
	}
	return fmt.Sprintf("doc->>'%s'", quoted)
}

// buildWhere renders a Filter as SQL, appending bind values to args.
func buildWhere(f Filter, args *[]any) string {
	var parts []string
	for _, c := range f.All {
		parts = append(parts, condExpr(c, args))
	}
	if len(f.Any) > 0 {
		var ors []string
		for _, c := range f.Any {
			ors = append(ors, condExpr(c, args))
		}
		parts = append(parts, "("+strings.Join(ors, " OR ")+")")
	}
	return strings.Join(parts, " AND ")
}

func condExpr(c Cond, args *[]any) string {
	*args = append(*args, c.Value)
	n := len(*args)

	switch c.Op {
	case OpGte:
		return fmt.Sprintf("%s >= $%d", fieldExpr(c.Field), n)
	case OpLte:
		return fmt.Sprintf("%s <= $%d", fieldExpr(c.Field), n)
	case OpContainsFold:
		if listFields[c.Field] {
			quoted := strings.ReplaceAll(c.Field, "'", "''")
			return fmt.Sprintf(
				"EXISTS (SELECT 1 FROM jsonb_array_elements_text(doc->'%s') AS elem WHERE elem ILIKE '%%' || $%d || '%%')",
				quoted, n)
		}
		return fmt.Sprintf("%s ILIKE '%%' || $%d || '%%'", fieldExpr(c.Field), n)
	default:
		return fmt.Sprintf("%s = $%d", fieldExpr(c.Field), n)
	}
}
