package procedure

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-07-14")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2025-07-14" {
		t.Errorf("expected 2025-07-14, got %s", d)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	if _, err := ParseDate("14/07/2025"); err == nil {
		t.Error("expected error for non ISO date")
	}
}

func TestDate_Equal(t *testing.T) {
	a := NewDate(2025, time.July, 14)
	b := Date{time.Date(2025, time.July, 14, 23, 30, 0, 0, time.UTC)}
	if !a.Equal(b) {
		t.Error("dates on the same day should be equal")
	}
	c := NewDate(2025, time.July, 15)
	if a.Equal(c) {
		t.Error("different days should not be equal")
	}
}

func TestDate_JSONRoundTrip(t *testing.T) {
	d := NewDate(2025, time.July, 14)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != `"2025-07-14"` {
		t.Errorf("expected quoted date, got %s", b)
	}

	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !back.Equal(d) {
		t.Errorf("round trip mismatch: %s", back)
	}
}

func TestDate_UnmarshalJSON_Timestamp(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2025-07-14T10:30:00Z"`), &d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Equal(NewDate(2025, time.July, 14)) {
		t.Errorf("expected 2025-07-14, got %s", d)
	}
}

func TestDate_MarshalJSON_Zero(t *testing.T) {
	b, err := json.Marshal(Date{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != "null" {
		t.Errorf("expected null, got %s", b)
	}
}

func TestDate_Scan(t *testing.T) {
	var d Date
	if err := d.Scan(time.Date(2025, time.July, 14, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2025-07-14" {
		t.Errorf("expected 2025-07-14, got %s", d)
	}
	if err := d.Scan(42); err == nil {
		t.Error("expected error for unsupported type")
	}
}

func TestPatchFields_IsEmpty(t *testing.T) {
	if !(PatchFields{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}
	status := StatusPaid
	if (PatchFields{Status: &status}).IsEmpty() {
		t.Error("patch with a status should not be empty")
	}
	amount := decimal.NewFromInt(50)
	if (PatchFields{GlosaAmount: &amount}).IsEmpty() {
		t.Error("patch with a glosa amount should not be empty")
	}
}
