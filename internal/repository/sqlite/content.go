package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/content-studio/internal/apperror"
	"github.com/sakif/content-studio/internal/model"
	"github.com/sakif/content-studio/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` fails to compile if *Y stops implementing X.
var _ repository.ContentRepository = (*DB)(nil)

const contentColumns = `id, topic, type, content, image_url, is_favorite, created_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows, so one scan function
// serves single-row and multi-row queries.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(s rowScanner) (*model.Content, error) {
	var (
		c         model.Content
		createdAt int64
	)
	if err := s.Scan(&c.ID, &c.Topic, &c.Type, &c.Content, &c.ImageURL, &c.IsFavorite, &createdAt); err != nil {
		return nil, err
	}
	c.CreatedAt = time.Unix(0, createdAt).UTC()
	return &c, nil
}

// Create inserts a new content record.
//
// ID GENERATION WITH xid:
// xid IDs are 20 URL-safe characters and sort by creation time.
// The caller's struct is filled in place (pointer argument), so after Create
// returns, content.ID is set. CreatedAt is kept if the service already stamped it.
func (db *DB) Create(ctx context.Context, content *model.Content) error {
	content.ID = xid.New().String()
	if content.CreatedAt.IsZero() {
		content.CreatedAt = time.Now()
	}
	content.CreatedAt = content.CreatedAt.UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO contents (`+contentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		content.ID,
		content.Topic,
		content.Type,
		content.Content,
		content.ImageURL,
		content.IsFavorite,
		content.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating content: %w", err)
	}

	return nil
}

// GetByID retrieves a single record.
//
// Two distinct failures:
//   - the id is not an xid at all → apperror.InvalidID (400)
//   - the id is well-formed but no row has it → apperror.NotFound (404)
func (db *DB) GetByID(ctx context.Context, id string) (*model.Content, error) {
	if _, err := xid.FromString(id); err != nil {
		return nil, apperror.InvalidID("content", id)
	}

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+contentColumns+` FROM contents WHERE id = ?`,
		id,
	)
	c, err := scanContent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("content", id)
		}
		return nil, fmt.Errorf("sqlite: getting content %s: %w", id, err)
	}

	return c, nil
}

// FindOne returns the newest record matching filter, or apperror.NotFound.
//
// The WHERE clause is assembled from fixed fragments; every value still goes
// through a ? placeholder, so nothing user-supplied is concatenated into SQL.
func (db *DB) FindOne(ctx context.Context, filter repository.DuplicateFilter) (*model.Content, error) {
	clauses := []string{"topic = ?", "type = ?", "created_at > ?"}
	args := []any{filter.Topic, filter.Type, filter.CreatedAfter.UTC().UnixNano()}

	if filter.Content != nil {
		clauses = append(clauses, "content = ?")
		args = append(args, *filter.Content)
	}
	if filter.ImageURL != nil {
		clauses = append(clauses, "image_url = ?")
		args = append(args, *filter.ImageURL)
	}

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+contentColumns+` FROM contents
		 WHERE `+strings.Join(clauses, " AND ")+`
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT 1`,
		args...,
	)
	c, err := scanContent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("content", filter.Topic)
		}
		return nil, fmt.Errorf("sqlite: finding duplicate content: %w", err)
	}

	return c, nil
}

// List returns records newest first. rowid breaks ties between rows created in
// the same nanosecond so the order always follows insertion.
//
// LIMIT -1 is SQLite for "no limit".
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.Content, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	where := ""
	if opts.FavoritesOnly {
		where = "WHERE is_favorite = 1"
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+contentColumns+` FROM contents `+where+`
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing contents: %w", err)
	}
	// CRITICAL: always close rows, or the pool leaks its only connection.
	defer rows.Close()

	contents := make([]model.Content, 0)
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning content row: %w", err)
		}
		contents = append(contents, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating contents: %w", err)
	}

	return contents, nil
}

// Save writes the favorite flag back. No other column is ever updated, which
// is what keeps topic, content and created_at immutable.
func (db *DB) Save(ctx context.Context, content *model.Content) error {
	if _, err := xid.FromString(content.ID); err != nil {
		return apperror.InvalidID("content", content.ID)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE contents SET is_favorite = ? WHERE id = ?`,
		content.IsFavorite,
		content.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving content %s: %w", content.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("content", content.ID)
	}

	return nil
}
