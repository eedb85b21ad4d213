package procedure

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InsuranceType identifies who pays for a procedure.
type InsuranceType string

const (
	InsuranceUnimed     InsuranceType = "Unimed"
	InsuranceParticular InsuranceType = "Particular"
	InsurancePublico    InsuranceType = "Público"
)

// PaymentMethod is only meaningful for Particular procedures.
type PaymentMethod string

const (
	PaymentDinheiro      PaymentMethod = "Dinheiro"
	PaymentSicredi       PaymentMethod = "Sicredi"
	PaymentBancoDoBrasil PaymentMethod = "Banco do Brasil"
	PaymentOutro         PaymentMethod = "Outro"
)

// Status tracks insurer reconciliation. A record starts pending; a
// statement audit moves it to paid or glosa. Nothing moves it back to
// pending, but a later audit run can flip paid and glosa either way.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusGlosa   Status = "glosa"
)

// ReceivedStatus tracks whether the money actually arrived.
type ReceivedStatus string

const (
	ReceivedYes ReceivedStatus = "recebido"
	ReceivedNo  ReceivedStatus = "nao_recebido"
)

const dateLayout = "2006-01-02"

// Date is a calendar date without a time component. Service dates are
// matched by exact day equality, so time-of-day and timezone must never
// leak in.
type Date struct {
	time.Time
}

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string { return d.Format(dateLayout) }

// Equal reports whether two dates fall on the same calendar day.
func (d Date) Equal(other Date) bool {
	return d.Format(dateLayout) == other.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	// Tolerate full timestamps from clients; only the day matters.
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date %q", s)
	}
	d.Time = t.Truncate(24 * time.Hour)
	return nil
}

// Scan implements sql.Scanner so pgx can read DATE columns.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = v
		return nil
	case string:
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return fmt.Errorf("scan date %q: %w", v, err)
		}
		d.Time = t
		return nil
	case nil:
		d.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Time, nil
}

// Procedure maps to the procedures table: one billed medical procedure
// with its insurance reconciliation state.
type Procedure struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	PatientName    string          `db:"patient_name" json:"patient_name"`
	ServiceDate    Date            `db:"service_date" json:"service_date"`
	ProcedureName  string          `db:"procedure_name" json:"procedure_name"`
	TUSSCode       *string         `db:"tuss_code" json:"tuss_code,omitempty"`
	Insurance      InsuranceType   `db:"insurance" json:"insurance"`
	PaymentMethod  *PaymentMethod  `db:"payment_method" json:"payment_method,omitempty"`
	ProcedureValue decimal.Decimal `db:"procedure_value" json:"procedure_value"`
	Status         Status          `db:"status" json:"status"`
	ReceivedStatus ReceivedStatus  `db:"received_status" json:"received_status"`
	GlosaAmount    decimal.Decimal `db:"glosa_amount" json:"glosa_amount"`
	Observations   *string         `db:"observations" json:"observations,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// PatchFields is a partial update of a Procedure's mutable reconciliation
// fields. Nil fields are left untouched.
type PatchFields struct {
	Status         *Status          `json:"status,omitempty"`
	ReceivedStatus *ReceivedStatus  `json:"received_status,omitempty"`
	GlosaAmount    *decimal.Decimal `json:"glosa_amount,omitempty"`
	Observations   *string          `json:"observations,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (f PatchFields) IsEmpty() bool {
	return f.Status == nil && f.ReceivedStatus == nil && f.GlosaAmount == nil && f.Observations == nil
}

// Stats are the dashboard aggregates over every registered procedure.
type Stats struct {
	TotalBilled   decimal.Decimal `json:"total_billed"`
	TotalReceived decimal.Decimal `json:"total_received"`
	TotalGlosa    decimal.Decimal `json:"total_glosa"`
	PendingCount  int             `json:"pending_count"`
}

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	From      Date
	To        Date
	Insurance InsuranceType
	Status    Status
}
