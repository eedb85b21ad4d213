package procedure

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const procCols = `id, patient_name, service_date, procedure_name, tuss_code,
	insurance, payment_method, procedure_value, status, received_status,
	glosa_amount, observations, created_at, updated_at`

func (r *repoPG) scanProcedure(row pgx.Row) (*Procedure, error) {
	var p Procedure
	err := row.Scan(&p.ID, &p.PatientName, &p.ServiceDate, &p.ProcedureName, &p.TUSSCode,
		&p.Insurance, &p.PaymentMethod, &p.ProcedureValue, &p.Status, &p.ReceivedStatus,
		&p.GlosaAmount, &p.Observations, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Procedure) error {
	p.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO procedures (id, patient_name, service_date, procedure_name, tuss_code,
			insurance, payment_method, procedure_value, status, received_status,
			glosa_amount, observations)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID, p.PatientName, p.ServiceDate, p.ProcedureName, p.TUSSCode,
		p.Insurance, p.PaymentMethod, p.ProcedureValue, p.Status, p.ReceivedStatus,
		p.GlosaAmount, p.Observations)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Procedure, error) {
	return r.scanProcedure(r.pool.QueryRow(ctx, `SELECT `+procCols+` FROM procedures WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Procedure) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE procedures SET patient_name=$2, service_date=$3, procedure_name=$4,
			tuss_code=$5, insurance=$6, payment_method=$7, procedure_value=$8,
			status=$9, received_status=$10, glosa_amount=$11, observations=$12,
			updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.PatientName, p.ServiceDate, p.ProcedureName,
		p.TUSSCode, p.Insurance, p.PaymentMethod, p.ProcedureValue,
		p.Status, p.ReceivedStatus, p.GlosaAmount, p.Observations)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("procedure %s not found", p.ID)
	}
	return nil
}

func (r *repoPG) Patch(ctx context.Context, id uuid.UUID, fields PatchFields) error {
	set := []string{"updated_at=NOW()"}
	args := []interface{}{id}
	n := 2

	if fields.Status != nil {
		set = append(set, fmt.Sprintf("status=$%d", n))
		args = append(args, *fields.Status)
		n++
	}
	if fields.ReceivedStatus != nil {
		set = append(set, fmt.Sprintf("received_status=$%d", n))
		args = append(args, *fields.ReceivedStatus)
		n++
	}
	if fields.GlosaAmount != nil {
		set = append(set, fmt.Sprintf("glosa_amount=$%d", n))
		args = append(args, *fields.GlosaAmount)
		n++
	}
	if fields.Observations != nil {
		set = append(set, fmt.Sprintf("observations=$%d", n))
		args = append(args, *fields.Observations)
		n++
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE procedures SET `+strings.Join(set, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("procedure %s not found", id)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Procedure, int, error) {
	where := []string{"TRUE"}
	args := []interface{}{}
	n := 1

	if !filter.From.IsZero() {
		where = append(where, fmt.Sprintf("service_date >= $%d", n))
		args = append(args, filter.From)
		n++
	}
	if !filter.To.IsZero() {
		where = append(where, fmt.Sprintf("service_date <= $%d", n))
		args = append(args, filter.To)
		n++
	}
	if filter.Insurance != "" {
		where = append(where, fmt.Sprintf("insurance = $%d", n))
		args = append(args, filter.Insurance)
		n++
	}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", n))
		args = append(args, filter.Status)
		n++
	}

	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM procedures WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM procedures WHERE %s ORDER BY service_date DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		procCols, cond, n, n+1)
	rows, err := r.pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Procedure
	for rows.Next() {
		p, err := r.scanProcedure(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) FindMatch(ctx context.Context, patientName string, date Date) (*Procedure, error) {
	p, err := r.scanProcedure(r.pool.QueryRow(ctx, `
		SELECT `+procCols+` FROM procedures
		WHERE patient_name ILIKE '%' || $1 || '%' AND service_date = $2
		ORDER BY created_at, id
		LIMIT 1`, patientName, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) FindCandidates(ctx context.Context, patientName string, date Date) ([]*Procedure, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+procCols+` FROM procedures
		WHERE patient_name ILIKE '%' || $1 || '%' AND service_date = $2
		ORDER BY created_at, id`, patientName, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Procedure
	for rows.Next() {
		p, err := r.scanProcedure(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *repoPG) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(procedure_value), 0),
			COALESCE(SUM(CASE WHEN received_status = 'recebido' THEN procedure_value ELSE 0 END), 0),
			COALESCE(SUM(glosa_amount), 0),
			COUNT(*) FILTER (WHERE status = 'pending')
		FROM procedures`).Scan(&s.TotalBilled, &s.TotalReceived, &s.TotalGlosa, &s.PendingCount)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
