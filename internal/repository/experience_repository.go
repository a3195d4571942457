package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/experience-booking/internal/model"
)

// ExperienceRepo is the Catalog Store.  Experiences live in the
// experiences table; their dates and slots live in child tables keyed by
// experience_id and ordered by position.
type ExperienceRepo struct {
	db *sql.DB
}

// NewExperienceRepo constructs an ExperienceRepo with the provided DB handle.
func NewExperienceRepo(db *sql.DB) *ExperienceRepo {
	return &ExperienceRepo{db: db}
}

const experienceColumns = `id, name, location, description, image, price, created_at`

// List returns all experiences, optionally filtered by a case-insensitive
// substring match against name, description or location.  The three
// fields are OR-ed.  Children are populated for every row.
func (r *ExperienceRepo) List(ctx context.Context, search string) ([]*model.Experience, error) {
	q := `SELECT ` + experienceColumns + ` FROM experiences`
	var args []any
	if s := strings.TrimSpace(search); s != "" {
		pattern := "%" + escapeLike(strings.ToLower(s)) + "%"
		q += ` WHERE LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(location) LIKE ?`
		args = append(args, pattern, pattern, pattern)
	}
	q += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.Experience, 0)
	for rows.Next() {
		e, err := scanExperience(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a single experience with its dates and slots.  It
// returns ErrExperienceNotFound if no row exists.
func (r *ExperienceRepo) GetByID(ctx context.Context, id string) (*model.Experience, error) {
	const q = `SELECT ` + experienceColumns + ` FROM experiences WHERE id = ?`
	e, err := scanExperience(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrExperienceNotFound
		}
		return nil, err
	}
	if err := r.loadChildren(ctx, []*model.Experience{e}); err != nil {
		return nil, err
	}
	return e, nil
}

// Create inserts an experience with its dates and slots in one
// transaction.  An empty ID is replaced by a new uuid.  CreatedAt is read
// back from the database default.
func (r *ExperienceRepo) Create(ctx context.Context, e *model.Experience) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const ins = `INSERT INTO experiences (id, name, location, description, image, price) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, ins, e.ID, e.Name, e.Location, e.Description, e.Image, e.Price); err != nil {
		return err
	}
	if len(e.Dates) > 0 {
		query := `INSERT INTO experience_dates (experience_id, position, date) VALUES `
		args := make([]any, 0, len(e.Dates)*3)
		for i, d := range e.Dates {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?)"
			args = append(args, e.ID, i, d)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	if len(e.Slots) > 0 {
		query := `INSERT INTO experience_slots (experience_id, position, time_label, available) VALUES `
		args := make([]any, 0, len(e.Slots)*4)
		for i, s := range e.Slots {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?)"
			args = append(args, e.ID, i, s.Time, s.Available)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	if err := tx.QueryRowContext(ctx, `SELECT created_at FROM experiences WHERE id = ?`, e.ID).Scan(&e.CreatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// DeleteAll removes every experience; dates and slots cascade.  Bookings
// are untouched and keep their denormalized experience names.
func (r *ExperienceRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM experiences`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DecrementSlotTx removes quantity seats from a slot inside the caller's
// transaction.  The check and the write are one conditional UPDATE, so two
// concurrent bookings can never drive available below zero.  It returns
// ErrSlotUnavailable when no row matched.
func (r *ExperienceRepo) DecrementSlotTx(ctx context.Context, tx *sql.Tx, experienceID, timeLabel string, quantity int) error {
	const q = `UPDATE experience_slots
	           SET available = available - ?
	           WHERE experience_id = ? AND time_label = ? AND available >= ?`
	res, err := tx.ExecContext(ctx, q, quantity, experienceID, timeLabel, quantity)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSlotUnavailable
	}
	return nil
}

// loadChildren populates Dates and Slots for the given experiences using
// one query per child table.
func (r *ExperienceRepo) loadChildren(ctx context.Context, exps []*model.Experience) error {
	if len(exps) == 0 {
		return nil
	}
	index := make(map[string]*model.Experience, len(exps))
	ids := make([]any, 0, len(exps))
	placeholders := make([]string, 0, len(exps))
	for _, e := range exps {
		e.Dates = []string{}
		e.Slots = []model.Slot{}
		index[e.ID] = e
		ids = append(ids, e.ID)
		placeholders = append(placeholders, "?")
	}
	in := strings.Join(placeholders, ",")

	dateRows, err := r.db.QueryContext(ctx,
		`SELECT experience_id, date FROM experience_dates WHERE experience_id IN (`+in+`) ORDER BY experience_id, position`,
		ids...)
	if err != nil {
		return err
	}
	defer dateRows.Close()
	for dateRows.Next() {
		var id, date string
		if err := dateRows.Scan(&id, &date); err != nil {
			return err
		}
		if e, ok := index[id]; ok {
			e.Dates = append(e.Dates, date)
		}
	}
	if err := dateRows.Err(); err != nil {
		return err
	}

	slotRows, err := r.db.QueryContext(ctx,
		`SELECT experience_id, time_label, available FROM experience_slots WHERE experience_id IN (`+in+`) ORDER BY experience_id, position`,
		ids...)
	if err != nil {
		return err
	}
	defer slotRows.Close()
	for slotRows.Next() {
		var id string
		var s model.Slot
		if err := slotRows.Scan(&id, &s.Time, &s.Available); err != nil {
			return err
		}
		if e, ok := index[id]; ok {
			e.Slots = append(e.Slots, s)
		}
	}
	return slotRows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExperience(row rowScanner) (*model.Experience, error) {
	e := new(model.Experience)
	if err := row.Scan(&e.ID, &e.Name, &e.Location, &e.Description, &e.Image, &e.Price, &e.CreatedAt); err != nil {
		return nil, err
	}
	return e, nil
}

// escapeLike neutralises LIKE wildcards so that search terms are matched
// literally.  MySQL's default escape character is the backslash.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
