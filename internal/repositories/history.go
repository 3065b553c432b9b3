package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/spool/internal/models"
	"github.com/desertthunder/spool/internal/shared"
)

const historyColumns = `id, sequence, account_id, action, target, result, error, started_at, finished_at, created_at, updated_at, deleted_at`

// HistoryRepository implements [models.Repository] for [models.ActionRecord] persistence.
type HistoryRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.ActionRecord] = (*HistoryRepository)(nil)

// NewHistoryRepository creates a new [HistoryRepository] with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create inserts a new record into the database with generated ID and sequence
func (r *HistoryRepository) Create(record *models.ActionRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "action_history")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO action_history (id, sequence, account_id, action, target, result, error, started_at, finished_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, record.AccountID(), string(record.Action()), record.Target(),
		record.Result(), record.ErrorMessage(), record.StartedAt(), record.FinishedAt(), record.CreatedAt(), record.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert action record: %w", err)
	}

	record.SetID(id)
	record.SetSequence(sequence)
	return nil
}

// Get retrieves a record by ID, excluding soft-deleted records
func (r *HistoryRepository) Get(id string) (*models.ActionRecord, error) {
	query := `SELECT ` + historyColumns + ` FROM action_history WHERE id = ? AND deleted_at IS NULL`

	record, err := scanRecord(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("action record not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query action record: %w", err)
	}
	return record, nil
}

// Update stores a record's outcome and finish time
func (r *HistoryRepository) Update(record *models.ActionRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	record.SetUpdatedAt(now)

	query := `
		UPDATE action_history
		SET result = ?, error = ?, finished_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, record.Result(), record.ErrorMessage(), record.FinishedAt(), now, record.ID())
	if err != nil {
		return fmt.Errorf("failed to update action record: %w", err)
	}

	return expectOneRow(result, record.ID())
}

// Delete soft-deletes a record by ID
func (r *HistoryRepository) Delete(id string) error {
	query := `
		UPDATE action_history
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete action record: %w", err)
	}

	return expectOneRow(result, id)
}

// List retrieves records matching the given criteria, newest first, excluding soft-deleted records.
//
// Supported criteria: "account_id" (string), "action" (string or [models.Action]),
// "failed" (bool), "since" ([time.Time]) and "limit" (int).
func (r *HistoryRepository) List(criteria map[string]any) ([]*models.ActionRecord, error) {
	query := `SELECT ` + historyColumns + ` FROM action_history WHERE deleted_at IS NULL`
	args := []any{}

	if account, ok := criteria["account_id"].(string); ok && account != "" {
		query += " AND account_id = ?"
		args = append(args, account)
	}

	switch action := criteria["action"].(type) {
	case models.Action:
		query += " AND action = ?"
		args = append(args, string(action))
	case string:
		if action != "" {
			query += " AND action = ?"
			args = append(args, action)
		}
	}

	if failed, ok := criteria["failed"].(bool); ok {
		if failed {
			query += " AND error != ''"
		} else {
			query += " AND error = ''"
		}
	}

	if since, ok := criteria["since"].(time.Time); ok && !since.IsZero() {
		query += " AND started_at >= ?"
		args = append(args, since)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query action history: %w", err)
	}
	defer rows.Close()

	var records []*models.ActionRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Record stores a finished action. It satisfies the dispatcher's recorder hook.
func (r *HistoryRepository) Record(record *models.ActionRecord) error {
	return r.Create(record)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.ActionRecord, error) {
	var (
		id         string
		sequence   int
		accountID  string
		action     string
		target     string
		result     string
		errMsg     string
		startedAt  time.Time
		finishedAt time.Time
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &accountID, &action, &target, &result, &errMsg,
		&startedAt, &finishedAt, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	record := models.NewActionRecord(accountID, models.Action(action), target)
	record.SetID(id)
	record.SetSequence(sequence)
	record.SetOutcome(result, errMsg)
	record.SetStartedAt(startedAt)
	record.SetFinishedAt(finishedAt)
	record.SetCreatedAt(createdAt)
	record.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		record.SetDeletedAt(&deletedAt.Time)
	}
	return record, nil
}

func expectOneRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("action record not found or already deleted: %s", id)
	}
	return nil
}
