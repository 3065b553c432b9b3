package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// NextSequence increments and returns the sequence counter kept in the table's <table>_sequence row.
//
// The update and the read happen in one statement, so concurrent callers never share a value.
func NextSequence(db *sql.DB, table string) (int, error) {
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)

	var sequence int
	err := db.QueryRow(query).Scan(&sequence)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("sequence for %s is not initialized", table)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence for %s: %w", table, err)
	}
	return sequence, nil
}
