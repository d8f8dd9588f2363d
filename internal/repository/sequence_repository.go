package repository

import "context"

// SequenceRepo hands out per-(hotel, name, year) counters from 'sequences'.
type SequenceRepo struct{ db DBTX }

// Next increments the counter atomically. LAST_INSERT_ID(expr) makes the new
// value come back in the statement result, so no second read races with
// another transaction.
func (r *SequenceRepo) Next(ctx context.Context, hotelID uint64, name string, year int) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sequences (hotel_id, name, year, value) VALUES (?, ?, ?, LAST_INSERT_ID(1))
		 ON DUPLICATE KEY UPDATE value = LAST_INSERT_ID(value + 1)`,
		hotelID, name, year)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
