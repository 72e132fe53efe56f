package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/wishlist/internal/errors"
	"github.com/hpungsan/wishlist/internal/wish"
)

// table is the quoted name of the wish table.
const table = `"wish-table"`

// Insert stores a new wish and returns its id.
// A zero ID lets SQLite assign one. If a row with the same explicit ID
// already exists the insert is ignored: inserted is false and id is w.ID.
func Insert(ctx context.Context, db *sql.DB, w wish.Wish) (id int64, inserted bool, err error) {
	var res sql.Result
	if w.IsNew() {
		res, err = db.ExecContext(ctx,
			`INSERT INTO `+table+` (title, description) VALUES (?, ?)`,
			w.Title, w.Description,
		)
	} else {
		res, err = db.ExecContext(ctx,
			`INSERT OR IGNORE INTO `+table+` (id, title, description) VALUES (?, ?, ?)`,
			w.ID, w.Title, w.Description,
		)
	}
	if err != nil {
		return 0, false, errors.NewInternal(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, errors.NewInternal(err)
	}
	if n == 0 {
		return w.ID, false, nil
	}

	if !w.IsNew() {
		return w.ID, true, nil
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, false, errors.NewInternal(err)
	}
	return id, true, nil
}

// ListAll returns every wish ordered by insertion (ascending id).
// The result is never nil.
func ListAll(ctx context.Context, db *sql.DB) ([]wish.Wish, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, title, description FROM `+table+` ORDER BY id`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	items := make([]wish.Wish, 0)
	for rows.Next() {
		var w wish.Wish
		if err := rows.Scan(&w.ID, &w.Title, &w.Description); err != nil {
			return nil, errors.NewInternal(err)
		}
		items = append(items, w)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return items, nil
}

// GetByID retrieves a wish by id. Returns a NOT_FOUND error if no row matches.
func GetByID(ctx context.Context, db *sql.DB, id int64) (*wish.Wish, error) {
	var w wish.Wish
	err := db.QueryRowContext(ctx,
		`SELECT id, title, description FROM `+table+` WHERE id = ?`, id,
	).Scan(&w.ID, &w.Title, &w.Description)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &w, nil
}

// Update overwrites title and description of the row matching w.ID.
// Returns false without error if no row matches.
func Update(ctx context.Context, db *sql.DB, w wish.Wish) (bool, error) {
	res, err := db.ExecContext(ctx,
		`UPDATE `+table+` SET title = ?, description = ? WHERE id = ?`,
		w.Title, w.Description, w.ID,
	)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return affected(res)
}

// Delete removes the row matching id.
// Returns false without error if no row matches.
func Delete(ctx context.Context, db *sql.DB, id int64) (bool, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return affected(res)
}

// Count returns the number of rows in the wish table.
func Count(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return n > 0, nil
}
