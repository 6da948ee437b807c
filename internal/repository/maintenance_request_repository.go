package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/policy"
)

// ErrConditionNotMet is returned by ApplyPatch when the assignee guard no
// longer matches the stored row.
var ErrConditionNotMet = errors.New("maintenance request assignee changed concurrently")

// MaintenanceRequestFilter captures scoped listing parameters.
type MaintenanceRequestFilter struct {
	CreatedByID *string
	// RestrictTeams limits results to TeamIDs; an empty TeamIDs then matches nothing.
	RestrictTeams bool
	TeamIDs       []string
	Statuses      []domain.RequestStatus
	Limit         int
	Offset        int
}

// MaintenanceRequestRepository encapsulates maintenance request persistence.
type MaintenanceRequestRepository interface {
	Create(ctx context.Context, req *domain.MaintenanceRequest) error
	GetByID(ctx context.Context, id string) (*domain.MaintenanceRequest, error)
	List(ctx context.Context, filter MaintenanceRequestFilter) ([]domain.MaintenanceRequest, error)
	ApplyPatch(ctx context.Context, id string, patch policy.SanitizedPatch) (*domain.MaintenanceRequest, error)
}

type maintenanceRequestRepository struct {
	db DBTX
}

// NewMaintenanceRequestRepository instantiates repository.
func NewMaintenanceRequestRepository(db DBTX) MaintenanceRequestRepository {
	return &maintenanceRequestRepository{db: db}
}

const requestColumns = `id, subject, description, maintenance_for, maintenance_type, equipment_id, work_center_id,
               category_id, priority, status, team_id, assigned_to_id, scheduled_date, duration_hours,
               created_by_id, created_at, updated_at`

func (r *maintenanceRequestRepository) Create(ctx context.Context, req *domain.MaintenanceRequest) error {
	const query = `
        INSERT INTO maintenance_requests (subject, description, maintenance_for, maintenance_type, equipment_id,
            work_center_id, category_id, priority, status, team_id, assigned_to_id, created_by_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		req.Subject,
		req.Description,
		req.MaintenanceFor,
		req.MaintenanceType,
		req.EquipmentID,
		req.WorkCenterID,
		req.CategoryID,
		req.Priority,
		req.Status,
		req.TeamID,
		req.AssignedToID,
		req.CreatedByID,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
}

func (r *maintenanceRequestRepository) GetByID(ctx context.Context, id string) (*domain.MaintenanceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM maintenance_requests WHERE id=$1`
	return scanRequest(r.db.QueryRow(ctx, query, id))
}

func (r *maintenanceRequestRepository) List(ctx context.Context, filter MaintenanceRequestFilter) ([]domain.MaintenanceRequest, error) {
	if filter.RestrictTeams && len(filter.TeamIDs) == 0 {
		return []domain.MaintenanceRequest{}, nil
	}

	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatedByID != nil {
		args = append(args, *filter.CreatedByID)
		clauses = append(clauses, fmt.Sprintf("created_by_id=$%d", len(args)))
	}
	if filter.RestrictTeams {
		args = append(args, filter.TeamIDs)
		clauses = append(clauses, fmt.Sprintf("team_id = ANY($%d)", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM maintenance_requests WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		requestColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.MaintenanceRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	return result, rows.Err()
}

// ApplyPatch writes the sanitized fields in a single statement. A guarded
// patch only applies while assigned_to_id still equals the guard value, which
// makes concurrent self-assignment a compare-and-swap.
func (r *maintenanceRequestRepository) ApplyPatch(ctx context.Context, id string, patch policy.SanitizedPatch) (*domain.MaintenanceRequest, error) {
	if patch.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	sets := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if patch.TeamID.Present {
		add("team_id", patch.TeamID.Ptr())
	}
	if patch.AssignedToID.Present {
		add("assigned_to_id", patch.AssignedToID.Ptr())
	}
	if patch.Status.Set() {
		add("status", patch.Status.Value)
	}
	if patch.ScheduledDate.Present {
		add("scheduled_date", patch.ScheduledDate.Ptr())
	}
	if patch.DurationHours.Present {
		add("duration_hours", patch.DurationHours.Ptr())
	}
	sets = append(sets, "updated_at=NOW()")

	args = append(args, id)
	where := fmt.Sprintf("id=$%d", len(args))
	if patch.Guard.Enabled {
		args = append(args, patch.Guard.AssignedToID)
		where += fmt.Sprintf(" AND assigned_to_id IS NOT DISTINCT FROM $%d", len(args))
	}

	query := fmt.Sprintf(`UPDATE maintenance_requests SET %s WHERE %s RETURNING %s`,
		strings.Join(sets, ", "), where, requestColumns)

	updated, err := scanRequest(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) && patch.Guard.Enabled {
			return nil, ErrConditionNotMet
		}
		return nil, err
	}
	return updated, nil
}

func scanRequest(row pgx.Row) (*domain.MaintenanceRequest, error) {
	var req domain.MaintenanceRequest
	if err := row.Scan(
		&req.ID,
		&req.Subject,
		&req.Description,
		&req.MaintenanceFor,
		&req.MaintenanceType,
		&req.EquipmentID,
		&req.WorkCenterID,
		&req.CategoryID,
		&req.Priority,
		&req.Status,
		&req.TeamID,
		&req.AssignedToID,
		&req.ScheduledDate,
		&req.DurationHours,
		&req.CreatedByID,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}
