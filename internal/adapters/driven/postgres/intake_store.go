package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
	"github.com/custodia-labs/pickup-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.IntakeStore = (*IntakeStore)(nil)

// IntakeStore implements driven.IntakeStore using PostgreSQL.
// The extraction result is stored as JSONB; order number, confidence and
// review flag are copied into columns for filtering.
type IntakeStore struct {
	db *DB
}

// NewIntakeStore creates a new IntakeStore
func NewIntakeStore(db *DB) *IntakeStore {
	return &IntakeStore{db: db}
}

const intakeColumns = `id, filename, page_count, extraction, status, message, order_id, operator_id, created_at, updated_at`

// Save creates or updates an intake
func (s *IntakeStore) Save(ctx context.Context, intake *domain.Intake) error {
	extractionJSON, err := json.Marshal(intake.Extraction)
	if err != nil {
		return fmt.Errorf("encode extraction: %w", err)
	}

	query := `
		INSERT INTO intakes (id, filename, page_count, extraction, order_number, confidence, needs_review,
			status, message, order_id, operator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			extraction = EXCLUDED.extraction,
			order_number = EXCLUDED.order_number,
			confidence = EXCLUDED.confidence,
			needs_review = EXCLUDED.needs_review,
			status = EXCLUDED.status,
			message = EXCLUDED.message,
			order_id = EXCLUDED.order_id,
			updated_at = EXCLUDED.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		intake.ID,
		intake.Filename,
		intake.PageCount,
		extractionJSON,
		intake.Extraction.Data.OrderNumber,
		intake.Extraction.Confidence,
		intake.Extraction.ReviewRequired,
		string(intake.Status),
		intake.Message,
		nullString(intake.OrderID),
		nullString(intake.OperatorID),
		intake.CreatedAt,
		intake.UpdatedAt,
	)
	return err
}

// Get retrieves an intake by ID
func (s *IntakeStore) Get(ctx context.Context, id string) (*domain.Intake, error) {
	query := `SELECT ` + intakeColumns + ` FROM intakes WHERE id = $1`

	intake, err := scanIntake(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return intake, err
}

// List retrieves intakes matching the filter, newest first
func (s *IntakeStore) List(ctx context.Context, filter domain.IntakeFilter) ([]*domain.Intake, error) {
	query, args := listQuery(filter.Normalize())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	intakes := make([]*domain.Intake, 0)
	for rows.Next() {
		intake, err := scanIntake(rows)
		if err != nil {
			return nil, err
		}
		intakes = append(intakes, intake)
	}
	return intakes, rows.Err()
}

// DeleteOlderThan removes intakes created before the cutoff
func (s *IntakeStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM intakes WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func listQuery(filter domain.IntakeFilter) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT ` + intakeColumns + ` FROM intakes`)

	args := make([]any, 0, 3)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		fmt.Fprintf(&b, ` WHERE status = $%d`, len(args))
	}

	args = append(args, filter.Limit, filter.Offset)
	fmt.Fprintf(&b, ` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	return b.String(), args
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanIntake(row rowScanner) (*domain.Intake, error) {
	var intake domain.Intake
	var extractionJSON []byte
	var status string
	var orderID, operatorID sql.NullString

	err := row.Scan(
		&intake.ID,
		&intake.Filename,
		&intake.PageCount,
		&extractionJSON,
		&status,
		&intake.Message,
		&orderID,
		&operatorID,
		&intake.CreatedAt,
		&intake.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	intake.Status = domain.IntakeStatus(status)
	intake.OrderID = orderID.String
	intake.OperatorID = operatorID.String

	if err := json.Unmarshal(extractionJSON, &intake.Extraction); err != nil {
		return nil, fmt.Errorf("decode extraction for intake %s: %w", intake.ID, err)
	}
	return &intake, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
