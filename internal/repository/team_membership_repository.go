package repository

import (
	"context"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// TeamMembershipRepository resolves and edits technician team membership.
// Every call reads the join table directly so changes apply on the next check.
type TeamMembershipRepository interface {
	IsMember(ctx context.Context, userID, teamID string) (bool, error)
	TeamsOf(ctx context.Context, userID string) ([]string, error)
	Add(ctx context.Context, userID, teamID string) error
	Remove(ctx context.Context, userID, teamID string) error
	GetTeam(ctx context.Context, teamID string) (*domain.Team, error)
}

type teamMembershipRepository struct {
	db DBTX
}

// NewTeamMembershipRepository constructs repository.
func NewTeamMembershipRepository(db DBTX) TeamMembershipRepository {
	return &teamMembershipRepository{db: db}
}

func (r *teamMembershipRepository) IsMember(ctx context.Context, userID, teamID string) (bool, error) {
	const query = `
        SELECT EXISTS(SELECT 1 FROM team_members WHERE user_id=$1 AND team_id=$2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, teamID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *teamMembershipRepository) TeamsOf(ctx context.Context, userID string) ([]string, error) {
	const query = `
        SELECT team_id FROM team_members WHERE user_id=$1 ORDER BY team_id`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []string{}
	for rows.Next() {
		var teamID string
		if err := rows.Scan(&teamID); err != nil {
			return nil, err
		}
		result = append(result, teamID)
	}
	return result, rows.Err()
}

func (r *teamMembershipRepository) Add(ctx context.Context, userID, teamID string) error {
	const query = `
        INSERT INTO team_members (user_id, team_id)
        VALUES ($1,$2)
        ON CONFLICT (user_id, team_id) DO NOTHING`
	_, err := r.db.Exec(ctx, query, userID, teamID)
	return err
}

func (r *teamMembershipRepository) Remove(ctx context.Context, userID, teamID string) error {
	const query = `
        DELETE FROM team_members WHERE user_id=$1 AND team_id=$2`
	_, err := r.db.Exec(ctx, query, userID, teamID)
	return err
}

func (r *teamMembershipRepository) GetTeam(ctx context.Context, teamID string) (*domain.Team, error) {
	const query = `
        SELECT id, name, created_at FROM teams WHERE id=$1`
	var team domain.Team
	if err := r.db.QueryRow(ctx, query, teamID).Scan(&team.ID, &team.Name, &team.CreatedAt); err != nil {
		return nil, err
	}
	return &team, nil
}
