package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNewDate(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		day   int
		ok    bool
	}{
		{"regular day", 2024, time.March, 12, true},
		{"leap day", 2024, time.February, 29, true},
		{"not a leap year", 2023, time.February, 29, false},
		{"31 february", 2024, time.February, 31, false},
		{"month zero", 2024, 0, 10, false},
		{"day zero", 2024, time.May, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := NewDate(tt.year, tt.month, tt.day)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && (d.Year != tt.year || d.Month != tt.month || d.Day != tt.day) {
				t.Errorf("unexpected date %+v", d)
			}
			if !ok && !d.IsZero() {
				t.Errorf("expected zero date on failure, got %+v", d)
			}
		})
	}
}

func TestDate_String(t *testing.T) {
	d, _ := NewDate(2024, time.January, 5)
	if d.String() != "2024-01-05" {
		t.Errorf("expected 2024-01-05, got %s", d.String())
	}
	if (Date{}).String() != "" {
		t.Error("zero date should format as empty string")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-07-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2024-07-01" {
		t.Errorf("expected 2024-07-01, got %s", d)
	}

	d, err = ParseDate("2024-07-01T10:30:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2024-07-01" {
		t.Errorf("expected 2024-07-01, got %s", d)
	}

	_, err = ParseDate("01/07/2024")
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDate_JSON(t *testing.T) {
	type wrapper struct {
		When  Date  `json:"when"`
		Maybe *Date `json:"maybe,omitempty"`
	}

	d, _ := NewDate(2025, time.December, 24)
	data, err := json.Marshal(wrapper{When: d})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"when":"2025-12-24"}` {
		t.Errorf("unexpected JSON: %s", data)
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"when":null,"maybe":"2025-01-02"}`), &w); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !w.When.IsZero() {
		t.Errorf("expected zero date for null, got %v", w.When)
	}
	if w.Maybe == nil || w.Maybe.String() != "2025-01-02" {
		t.Errorf("expected maybe=2025-01-02, got %v", w.Maybe)
	}

	if err := json.Unmarshal([]byte(`{"when":"yesterday"}`), &w); err == nil {
		t.Error("expected error for unparsable date")
	}
}
