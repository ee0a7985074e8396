package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/checkin-tracker/internal/apperror"
	"github.com/sakif/checkin-tracker/internal/model"
	"github.com/sakif/checkin-tracker/internal/repository"
	"github.com/sakif/checkin-tracker/internal/tracker"
)

var _ repository.CheckInRepository = (*DB)(nil)

const checkInColumns = `id, user_id, date, morning, afternoon, evening`

func scanCheckIn(row rowScanner) (*model.CheckIn, error) {
	var c model.CheckIn
	err := row.Scan(&c.ID, &c.UserID, &c.Date, &c.Morning, &c.Afternoon, &c.Evening)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// periodColumn maps a period to its column name. Column names cannot be
// bound as ? parameters, so only these three strings ever reach the SQL.
func periodColumn(p model.Period) (string, error) {
	switch p {
	case model.PeriodMorning:
		return "morning", nil
	case model.PeriodAfternoon:
		return "afternoon", nil
	case model.PeriodEvening:
		return "evening", nil
	}
	return "", apperror.ValidationFailed("period", fmt.Sprintf("unknown period %q", p))
}

// GetCheckIn returns the record for one user and day, or apperror.ErrNotFound.
func (db *DB) GetCheckIn(ctx context.Context, userID string, date model.Date) (*model.CheckIn, error) {
	c, err := scanCheckIn(db.conn.QueryRowContext(ctx,
		`SELECT `+checkInColumns+` FROM check_ins WHERE user_id = ? AND date = ?`,
		userID, date,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("check-in", userID+"/"+date.String())
		}
		return nil, fmt.Errorf("sqlite: getting check-in %s/%s: %w", userID, date, err)
	}
	return c, nil
}

// EnsureCheckIn creates the day's blank record on first access.
//
// INSERT ... ON CONFLICT DO NOTHING leans on UNIQUE(user_id, date): when two
// requests race, one insert wins and the other is a no-op, and both then
// read back the same row.
func (db *DB) EnsureCheckIn(ctx context.Context, userID string, date model.Date) (*model.CheckIn, error) {
	now := time.Now().UTC()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO check_ins (id, user_id, date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, date) DO NOTHING`,
		xid.New().String(), userID, date, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: creating check-in %s/%s: %w", userID, date, err)
	}
	return db.GetCheckIn(ctx, userID, date)
}

// ListCheckIns returns a user's records between from and to inclusive,
// oldest first. Days with no record are simply absent.
func (db *DB) ListCheckIns(ctx context.Context, userID string, from, to model.Date) ([]model.CheckIn, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+checkInColumns+` FROM check_ins
		 WHERE user_id = ? AND date BETWEEN ? AND ?
		 ORDER BY date ASC`,
		userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing check-ins for %s: %w", userID, err)
	}
	defer rows.Close()

	records := make([]model.CheckIn, 0)
	for rows.Next() {
		c, err := scanCheckIn(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning check-in row: %w", err)
		}
		records = append(records, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating check-in rows: %w", err)
	}
	return records, nil
}

// ApplyMark writes a period outcome and, for a failure, the user's
// elimination date, in one transaction.
//
// FIRST WRITE WINS:
// The UPDATE only matches while the period column is still NULL. If another
// writer got there first, zero rows change and we report AlreadyMarked
// instead of overwriting. failed_at is likewise only written while NULL or
// left over from an earlier year's challenge, so the first failure of a
// challenge sticks until the next one.
func (db *DB) ApplyMark(ctx context.Context, mark tracker.Mark) error {
	col, err := periodColumn(mark.Period)
	if err != nil {
		return err
	}
	rec := mark.Record

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning mark transaction: %w", err)
	}
	// Rollback after Commit is a no-op.
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE check_ins SET `+col+` = ?, updated_at = ?
		 WHERE user_id = ? AND date = ? AND `+col+` IS NULL`,
		mark.Outcome, now, rec.UserID, rec.Date,
	)
	if err != nil {
		return fmt.Errorf("sqlite: marking %s of %s/%s: %w", col, rec.UserID, rec.Date, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: reading rows affected: %w", err)
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM check_ins WHERE user_id = ? AND date = ?`,
			rec.UserID, rec.Date,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("sqlite: checking check-in %s/%s: %w", rec.UserID, rec.Date, err)
		}
		if exists == 0 {
			return apperror.NotFound("check-in", rec.UserID+"/"+rec.Date.String())
		}
		return apperror.AlreadyMarked(string(mark.Period), rec.Date.String())
	}

	if e := mark.Elimination; e != nil {
		_, err := tx.ExecContext(ctx,
			`UPDATE users SET failed_at = ?, updated_at = ?
			 WHERE id = ? AND (failed_at IS NULL OR failed_at < ?)`,
			e.FailedAt.String(), now, e.UserID, model.NewDate(e.FailedAt.Year, time.January, 1).String(),
		)
		if err != nil {
			return fmt.Errorf("sqlite: recording failure of %s: %w", e.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing mark: %w", err)
	}
	return nil
}
