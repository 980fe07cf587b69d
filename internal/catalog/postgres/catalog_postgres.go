package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"docvault/internal/catalog"
	"docvault/internal/model"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// CatalogPostgres is a PostgreSQL implementation of catalog.Catalog.
// It uses database/sql with parameterized queries and contains no business logic.
type CatalogPostgres struct {
	db *sql.DB
}

// NewCatalogPostgres creates a new CatalogPostgres.
func NewCatalogPostgres(db *sql.DB) *CatalogPostgres {
	return &CatalogPostgres{db: db}
}

var _ catalog.Catalog = (*CatalogPostgres)(nil)

const documentColumns = `id, owner_id, file_name, file_type, category, file_size, storage_key, tags, upload_date`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (catalog.Entry, error) {
	var (
		e        catalog.Entry
		id       int64
		ownerID  int64
		category string
		tags     []byte
	)
	if err := row.Scan(&id, &ownerID, &e.FileName, &e.FileType, &category, &e.FileSize, &e.StorageKey, &tags, &e.UploadDate); err != nil {
		return catalog.Entry{}, err
	}
	e.ID = strconv.FormatInt(id, 10)
	e.OwnerID = strconv.FormatInt(ownerID, 10)
	e.Category = model.Category(category)
	e.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &e.Tags); err != nil {
			return catalog.Entry{}, fmt.Errorf("decode tags of document %d: %w", id, err)
		}
	}
	return e, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// parseID maps an id that can never exist in a BIGSERIAL column to ErrNotFound.
func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, catalog.ErrNotFound
	}
	return n, nil
}

// Create inserts a new document row and returns the stored record.
func (r *CatalogPostgres) Create(ctx context.Context, e *catalog.Entry) (*catalog.Entry, error) {
	ownerID, err := strconv.ParseInt(e.OwnerID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id %q: %w", e.OwnerID, err)
	}
	tags, err := encodeTags(e.Tags)
	if err != nil {
		return nil, err
	}

	const q = `
		INSERT INTO documents (owner_id, file_name, file_type, category, file_size, storage_key, tags, upload_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		ownerID,
		e.FileName,
		e.FileType,
		string(e.Category),
		e.FileSize,
		e.StorageKey,
		tags,
		e.UploadDate,
	)
	out, err := scanEntry(row)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID fetches a single document by its ID.
func (r *CatalogPostgres) FindByID(ctx context.Context, id string) (*catalog.Entry, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	out, err := scanEntry(r.db.QueryRowContext(ctx, q, n))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// List returns documents newest first, filtered by owner and category.
func (r *CatalogPostgres) List(ctx context.Context, lq catalog.ListQuery) ([]catalog.Entry, error) {
	var (
		where []string
		args  []any
	)
	if lq.OwnerID != "" {
		ownerID, err := strconv.ParseInt(lq.OwnerID, 10, 64)
		if err != nil {
			return []catalog.Entry{}, nil
		}
		args = append(args, ownerID)
		where = append(where, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if lq.Category != "" {
		args = append(args, string(lq.Category))
		where = append(where, fmt.Sprintf("lower(category) = lower($%d)", len(args)))
	}

	q := `SELECT ` + documentColumns + ` FROM documents`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY upload_date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]catalog.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update overwrites the mutable columns of a document.
func (r *CatalogPostgres) Update(ctx context.Context, e *catalog.Entry) (*catalog.Entry, error) {
	n, err := parseID(e.ID)
	if err != nil {
		return nil, err
	}
	tags, err := encodeTags(e.Tags)
	if err != nil {
		return nil, err
	}

	const q = `
		UPDATE documents
		SET file_name = $2, file_type = $3, category = $4, file_size = $5, storage_key = $6, tags = $7
		WHERE id = $1
		RETURNING ` + documentColumns
	out, err := scanEntry(r.db.QueryRowContext(ctx, q,
		n,
		e.FileName,
		e.FileType,
		string(e.Category),
		e.FileSize,
		e.StorageKey,
		tags,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// Delete removes a document by ID. It does not return an error if the row does not exist.
func (r *CatalogPostgres) Delete(ctx context.Context, id string) error {
	n, err := parseID(id)
	if err != nil {
		return nil
	}
	const q = `DELETE FROM documents WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, q, n); err != nil {
		return err
	}
	return nil
}

// CreateUser inserts an account. A taken email yields catalog.ErrDuplicate.
func (r *CatalogPostgres) CreateUser(ctx context.Context, u *catalog.User) (*catalog.User, error) {
	const q = `
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, email, password_hash, created_at
	`
	var (
		out catalog.User
		id  int64
	)
	err := r.db.QueryRowContext(ctx, q, u.Username, strings.ToLower(u.Email), u.PasswordHash, u.CreatedAt).
		Scan(&id, &out.Username, &out.Email, &out.PasswordHash, &out.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, catalog.ErrDuplicate
		}
		return nil, err
	}
	out.ID = strconv.FormatInt(id, 10)
	return &out, nil
}

// FindUserByEmail looks an account up by its email, case-insensitively.
func (r *CatalogPostgres) FindUserByEmail(ctx context.Context, email string) (*catalog.User, error) {
	const q = `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE email = $1
	`
	var (
		out catalog.User
		id  int64
	)
	err := r.db.QueryRowContext(ctx, q, strings.ToLower(email)).
		Scan(&id, &out.Username, &out.Email, &out.PasswordHash, &out.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, err
	}
	out.ID = strconv.FormatInt(id, 10)
	return &out, nil
}
