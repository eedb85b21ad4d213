package procedure

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// -- Mock Repository --

type mockRepo struct {
	items map[uuid.UUID]*Procedure
	order []uuid.UUID
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Procedure)}
}

func (m *mockRepo) Create(_ context.Context, p *Procedure) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	m.items[p.ID] = p
	m.order = append(m.order, p.ID)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Procedure, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func (m *mockRepo) Update(_ context.Context, p *Procedure) error {
	if _, ok := m.items[p.ID]; !ok {
		return fmt.Errorf("not found")
	}
	m.items[p.ID] = p
	return nil
}

func (m *mockRepo) Patch(_ context.Context, id uuid.UUID, fields PatchFields) error {
	p, ok := m.items[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	if fields.Status != nil {
		p.Status = *fields.Status
	}
	if fields.ReceivedStatus != nil {
		p.ReceivedStatus = *fields.ReceivedStatus
	}
	if fields.GlosaAmount != nil {
		p.GlosaAmount = *fields.GlosaAmount
	}
	if fields.Observations != nil {
		p.Observations = fields.Observations
	}
	return nil
}

func (m *mockRepo) List(_ context.Context, filter ListFilter, limit, offset int) ([]*Procedure, int, error) {
	var result []*Procedure
	for _, id := range m.order {
		p := m.items[id]
		if filter.Insurance != "" && p.Insurance != filter.Insurance {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if !filter.From.IsZero() && p.ServiceDate.Before(filter.From.Time) {
			continue
		}
		if !filter.To.IsZero() && p.ServiceDate.After(filter.To.Time) {
			continue
		}
		result = append(result, p)
	}
	return result, len(result), nil
}

func (m *mockRepo) FindMatch(ctx context.Context, patientName string, date Date) (*Procedure, error) {
	candidates, err := m.FindCandidates(ctx, patientName, date)
	if err != nil || len(candidates) == 0 {
		return nil, err
	}
	return candidates[0], nil
}

func (m *mockRepo) FindCandidates(_ context.Context, patientName string, date Date) ([]*Procedure, error) {
	var result []*Procedure
	for _, id := range m.order {
		p := m.items[id]
		if strings.Contains(strings.ToLower(p.PatientName), strings.ToLower(patientName)) && p.ServiceDate.Equal(date) {
			result = append(result, p)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *mockRepo) Stats(_ context.Context) (*Stats, error) {
	s := &Stats{
		TotalBilled:   decimal.Zero,
		TotalReceived: decimal.Zero,
		TotalGlosa:    decimal.Zero,
	}
	for _, p := range m.items {
		s.TotalBilled = s.TotalBilled.Add(p.ProcedureValue)
		if p.ReceivedStatus == ReceivedYes {
			s.TotalReceived = s.TotalReceived.Add(p.ProcedureValue)
		}
		s.TotalGlosa = s.TotalGlosa.Add(p.GlosaAmount)
		if p.Status == StatusPending {
			s.PendingCount++
		}
	}
	return s, nil
}

func newTestService() *Service {
	return NewService(newMockRepo())
}

func validProcedure() *Procedure {
	return &Procedure{
		PatientName:    "Maria Silva",
		ServiceDate:    NewDate(2025, time.July, 14),
		ProcedureName:  "Consulta",
		ProcedureValue: decimal.NewFromInt(150),
	}
}

// -- Tests --

func TestCreate(t *testing.T) {
	svc := newTestService()
	p := validProcedure()
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Error("expected an assigned id")
	}
	if p.Insurance != InsuranceUnimed {
		t.Errorf("expected default insurance Unimed, got %s", p.Insurance)
	}
	if p.Status != StatusPending {
		t.Errorf("expected default status pending, got %s", p.Status)
	}
	if p.ReceivedStatus != ReceivedNo {
		t.Errorf("expected default received_status nao_recebido, got %s", p.ReceivedStatus)
	}
}

func TestCreate_PatientNameRequired(t *testing.T) {
	svc := newTestService()
	p := validProcedure()
	p.PatientName = ""
	if err := svc.Create(context.Background(), p); err == nil {
		t.Error("expected error for missing patient_name")
	}
}

func TestCreate_ServiceDateRequired(t *testing.T) {
	svc := newTestService()
	p := validProcedure()
	p.ServiceDate = Date{}
	if err := svc.Create(context.Background(), p); err == nil {
		t.Error("expected error for missing service_date")
	}
}

func TestCreate_NegativeValue(t *testing.T) {
	svc := newTestService()
	p := validProcedure()
	p.ProcedureValue = decimal.NewFromInt(-10)
	if err := svc.Create(context.Background(), p); err == nil {
		t.Error("expected error for negative procedure_value")
	}
}

func TestCreate_InvalidInsurance(t *testing.T) {
	svc := newTestService()
	p := validProcedure()
	p.Insurance = "Bradesco"
	if err := svc.Create(context.Background(), p); err == nil {
		t.Error("expected error for unknown insurance")
	}
}

func TestCreate_PaymentMethodRequiresParticular(t *testing.T) {
	svc := newTestService()
	p := validProcedure()
	p.Insurance = InsuranceUnimed
	pm := PaymentDinheiro
	p.PaymentMethod = &pm
	if err := svc.Create(context.Background(), p); err == nil {
		t.Error("expected error: payment_method on a Unimed procedure")
	}
}

func TestCreate_ParticularWithPaymentMethod(t *testing.T) {
	svc := newTestService()
	p := validProcedure()
	p.Insurance = InsuranceParticular
	pm := PaymentSicredi
	p.PaymentMethod = &pm
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreate_InvalidPaymentMethod(t *testing.T) {
	svc := newTestService()
	p := validProcedure()
	p.Insurance = InsuranceParticular
	pm := PaymentMethod("Cheque")
	p.PaymentMethod = &pm
	if err := svc.Create(context.Background(), p); err == nil {
		t.Error("expected error for unknown payment_method")
	}
}

func TestUpdate_IDRequired(t *testing.T) {
	svc := newTestService()
	p := validProcedure()
	if err := svc.Update(context.Background(), p); err == nil {
		t.Error("expected error for missing id")
	}
}

func TestPatch(t *testing.T) {
	svc := newTestService()
	p := validProcedure()
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	status := StatusPaid
	received := ReceivedYes
	if err := svc.Patch(context.Background(), p.ID, PatchFields{Status: &status, ReceivedStatus: &received}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := svc.GetByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusPaid || got.ReceivedStatus != ReceivedYes {
		t.Errorf("patch not applied: %s/%s", got.Status, got.ReceivedStatus)
	}
}

func TestPatch_Empty(t *testing.T) {
	svc := newTestService()
	if err := svc.Patch(context.Background(), uuid.New(), PatchFields{}); err == nil {
		t.Error("expected error for empty patch")
	}
}

func TestPatch_InvalidStatus(t *testing.T) {
	svc := newTestService()
	status := Status("cancelled")
	if err := svc.Patch(context.Background(), uuid.New(), PatchFields{Status: &status}); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestPatch_NegativeGlosa(t *testing.T) {
	svc := newTestService()
	amount := decimal.NewFromInt(-1)
	if err := svc.Patch(context.Background(), uuid.New(), PatchFields{GlosaAmount: &amount}); err == nil {
		t.Error("expected error for negative glosa_amount")
	}
}

func TestList_InvalidFilter(t *testing.T) {
	svc := newTestService()
	if _, _, err := svc.List(context.Background(), ListFilter{Status: "done"}, 20, 0); err == nil {
		t.Error("expected error for unknown status filter")
	}
}

func TestFindMatch_SubstringCaseInsensitive(t *testing.T) {
	svc := newTestService()
	p := validProcedure()
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := svc.FindMatch(context.Background(), "maria", p.ServiceDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != p.ID {
		t.Error("expected a case insensitive substring match")
	}
}

func TestFindMatch_NoHit(t *testing.T) {
	svc := newTestService()
	got, err := svc.FindMatch(context.Background(), "Maria", NewDate(2025, time.July, 14))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected nil for no match")
	}
}

func TestStats(t *testing.T) {
	svc := newTestService()
	a := validProcedure()
	svc.Create(context.Background(), a)

	b := validProcedure()
	b.PatientName = "João Souza"
	b.ProcedureValue = decimal.NewFromInt(300)
	b.Status = StatusGlosa
	b.GlosaAmount = decimal.NewFromInt(50)
	svc.Create(context.Background(), b)

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stats.TotalBilled.Equal(decimal.NewFromInt(450)) {
		t.Errorf("expected total billed 450, got %s", stats.TotalBilled)
	}
	if !stats.TotalGlosa.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected total glosa 50, got %s", stats.TotalGlosa)
	}
	if stats.PendingCount != 1 {
		t.Errorf("expected 1 pending, got %d", stats.PendingCount)
	}
}
