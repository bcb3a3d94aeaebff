package postgres

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
)

func TestListQuery(t *testing.T) {
	tests := []struct {
		name      string
		filter    domain.IntakeFilter
		wantWhere bool
		wantArgs  []any
	}{
		{
			name:     "all statuses",
			filter:   domain.IntakeFilter{Limit: 10, Offset: 20},
			wantArgs: []any{10, 20},
		},
		{
			name:      "one status",
			filter:    domain.IntakeFilter{Status: domain.IntakeHeldForReview, Limit: 50},
			wantWhere: true,
			wantArgs:  []any{"HELD_FOR_REVIEW", 50, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := listQuery(tt.filter)

			assert.Equal(t, tt.wantArgs, args)
			assert.Equal(t, tt.wantWhere, strings.Contains(query, "WHERE status = $1"))
			if tt.wantWhere {
				assert.Contains(t, query, "LIMIT $2 OFFSET $3")
			} else {
				assert.Contains(t, query, "LIMIT $1 OFFSET $2")
			}
			assert.Contains(t, query, "ORDER BY created_at DESC")
		})
	}
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case *int:
			*p = r.values[i].(int)
		case *[]byte:
			*p = r.values[i].([]byte)
		case *time.Time:
			*p = r.values[i].(time.Time)
		case interface{ Scan(any) error }:
			if err := p.Scan(r.values[i]); err != nil {
				return err
			}
		default:
			return errors.New("unsupported destination")
		}
	}
	return nil
}

func TestScanIntake(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	row := fakeRow{values: []any{
		"i1", "ordine.pdf", 2,
		[]byte(`{"data":{"orderNumber":"123456789"},"confidence":80,"qualityScore":85,"needsReview":["basinCode"],"reviewRequired":true}`),
		"EXTRACTED", "", nil, "op-1", now, now,
	}}

	intake, err := scanIntake(row)
	require.NoError(t, err)

	assert.Equal(t, "i1", intake.ID)
	assert.Equal(t, 2, intake.PageCount)
	assert.Equal(t, domain.IntakeExtracted, intake.Status)
	assert.Equal(t, "", intake.OrderID)
	assert.Equal(t, "op-1", intake.OperatorID)
	assert.Equal(t, "123456789", intake.Extraction.Data.OrderNumber)
	assert.Equal(t, 80, intake.Extraction.Confidence)
	assert.Equal(t, []string{"basinCode"}, intake.Extraction.NeedsReview)
	assert.True(t, intake.Extraction.ReviewRequired)
}

func TestScanIntake_BadJSON(t *testing.T) {
	now := time.Now()
	row := fakeRow{values: []any{"i1", "a.pdf", 1, []byte(`{`), "EXTRACTED", "", nil, nil, now, now}}

	_, err := scanIntake(row)
	assert.Error(t, err)
}

func TestNullString(t *testing.T) {
	assert.False(t, nullString("").Valid)
	assert.Equal(t, "x", nullString("x").String)
	assert.True(t, nullString("x").Valid)
}
