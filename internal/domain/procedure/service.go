package procedure

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var validInsurances = map[InsuranceType]bool{
	InsuranceUnimed: true, InsuranceParticular: true, InsurancePublico: true,
}

var validPaymentMethods = map[PaymentMethod]bool{
	PaymentDinheiro: true, PaymentSicredi: true, PaymentBancoDoBrasil: true, PaymentOutro: true,
}

var validStatuses = map[Status]bool{
	StatusPending: true, StatusPaid: true, StatusGlosa: true,
}

var validReceivedStatuses = map[ReceivedStatus]bool{
	ReceivedYes: true, ReceivedNo: true,
}

func (s *Service) validate(p *Procedure) error {
	if p.PatientName == "" {
		return fmt.Errorf("patient_name is required")
	}
	if p.ProcedureName == "" {
		return fmt.Errorf("procedure_name is required")
	}
	if p.ServiceDate.IsZero() {
		return fmt.Errorf("service_date is required")
	}
	if p.ProcedureValue.IsNegative() {
		return fmt.Errorf("procedure_value must not be negative")
	}
	if p.GlosaAmount.IsNegative() {
		return fmt.Errorf("glosa_amount must not be negative")
	}
	if p.Insurance == "" {
		p.Insurance = InsuranceUnimed
	}
	if !validInsurances[p.Insurance] {
		return fmt.Errorf("invalid insurance: %s", p.Insurance)
	}
	if p.PaymentMethod != nil {
		if p.Insurance != InsuranceParticular {
			return fmt.Errorf("payment_method only applies to %s procedures", InsuranceParticular)
		}
		if !validPaymentMethods[*p.PaymentMethod] {
			return fmt.Errorf("invalid payment_method: %s", *p.PaymentMethod)
		}
	}
	if p.Status == "" {
		p.Status = StatusPending
	}
	if !validStatuses[p.Status] {
		return fmt.Errorf("invalid status: %s", p.Status)
	}
	if p.ReceivedStatus == "" {
		p.ReceivedStatus = ReceivedNo
	}
	if !validReceivedStatuses[p.ReceivedStatus] {
		return fmt.Errorf("invalid received_status: %s", p.ReceivedStatus)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, p *Procedure) error {
	if err := s.validate(p); err != nil {
		return err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Procedure, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Procedure) error {
	if p.ID == uuid.Nil {
		return fmt.Errorf("id is required")
	}
	if err := s.validate(p); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) Patch(ctx context.Context, id uuid.UUID, fields PatchFields) error {
	if id == uuid.Nil {
		return fmt.Errorf("id is required")
	}
	if fields.IsEmpty() {
		return fmt.Errorf("patch has no fields")
	}
	if fields.Status != nil && !validStatuses[*fields.Status] {
		return fmt.Errorf("invalid status: %s", *fields.Status)
	}
	if fields.ReceivedStatus != nil && !validReceivedStatuses[*fields.ReceivedStatus] {
		return fmt.Errorf("invalid received_status: %s", *fields.ReceivedStatus)
	}
	if fields.GlosaAmount != nil && fields.GlosaAmount.IsNegative() {
		return fmt.Errorf("glosa_amount must not be negative")
	}
	return s.repo.Patch(ctx, id, fields)
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Procedure, int, error) {
	if filter.Insurance != "" && !validInsurances[filter.Insurance] {
		return nil, 0, fmt.Errorf("invalid insurance: %s", filter.Insurance)
	}
	if filter.Status != "" && !validStatuses[filter.Status] {
		return nil, 0, fmt.Errorf("invalid status: %s", filter.Status)
	}
	return s.repo.List(ctx, filter, limit, offset)
}

func (s *Service) FindMatch(ctx context.Context, patientName string, date Date) (*Procedure, error) {
	return s.repo.FindMatch(ctx, patientName, date)
}

func (s *Service) FindCandidates(ctx context.Context, patientName string, date Date) ([]*Procedure, error) {
	return s.repo.FindCandidates(ctx, patientName, date)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}
