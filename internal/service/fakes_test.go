package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/policy"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// memoryRequests mimics the Postgres repository including the guarded update.
type memoryRequests struct {
	mu         sync.Mutex
	rows       map[string]domain.MaintenanceRequest
	seq        int
	lastFilter repository.MaintenanceRequestFilter
	applyCalls int
	// beforeApply runs ahead of each ApplyPatch to simulate a concurrent writer.
	beforeApply func(m *memoryRequests, id string)
	getErr      error
}

func newMemoryRequests() *memoryRequests {
	return &memoryRequests{rows: map[string]domain.MaintenanceRequest{}}
}

func (m *memoryRequests) Create(_ context.Context, req *domain.MaintenanceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	req.ID = fmt.Sprintf("req-%d", m.seq)
	req.CreatedAt = time.Date(2024, 1, 1, 0, 0, m.seq, 0, time.UTC)
	req.UpdatedAt = req.CreatedAt
	m.rows[req.ID] = *req
	return nil
}

func (m *memoryRequests) GetByID(_ context.Context, id string) (*domain.MaintenanceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	row, ok := m.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &row, nil
}

func (m *memoryRequests) List(_ context.Context, filter repository.MaintenanceRequestFilter) ([]domain.MaintenanceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter

	result := []domain.MaintenanceRequest{}
	for _, row := range m.rows {
		if filter.CreatedByID != nil && row.CreatedByID != *filter.CreatedByID {
			continue
		}
		if filter.RestrictTeams && (row.TeamID == nil || !contains(filter.TeamIDs, *row.TeamID)) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, row.Status) {
			continue
		}
		result = append(result, row)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *memoryRequests) ApplyPatch(_ context.Context, id string, patch policy.SanitizedPatch) (*domain.MaintenanceRequest, error) {
	if m.beforeApply != nil {
		m.beforeApply(m, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyCalls++

	row, ok := m.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if patch.Guard.Enabled && !samePtr(row.AssignedToID, patch.Guard.AssignedToID) {
		return nil, repository.ErrConditionNotMet
	}
	if patch.TeamID.Present {
		row.TeamID = patch.TeamID.Ptr()
	}
	if patch.AssignedToID.Present {
		row.AssignedToID = patch.AssignedToID.Ptr()
	}
	if patch.Status.Set() {
		row.Status = patch.Status.Value
	}
	if patch.ScheduledDate.Present {
		row.ScheduledDate = patch.ScheduledDate.Ptr()
	}
	if patch.DurationHours.Present {
		row.DurationHours = patch.DurationHours.Ptr()
	}
	m.rows[id] = row
	return &row, nil
}

// setAssignee writes directly, bypassing the guard. Callers must not hold mu.
func (m *memoryRequests) setAssignee(id string, assignee *string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.rows[id]
	row.AssignedToID = assignee
	m.rows[id] = row
}

type memoryMembers struct {
	mu      sync.Mutex
	teams   map[string]domain.Team
	members map[string]map[string]bool
	err     error
}

func newMemoryMembers(teamIDs ...string) *memoryMembers {
	m := &memoryMembers{teams: map[string]domain.Team{}, members: map[string]map[string]bool{}}
	for _, id := range teamIDs {
		m.teams[id] = domain.Team{ID: id, Name: "Team " + id}
	}
	return m
}

func (m *memoryMembers) IsMember(_ context.Context, userID, teamID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	return m.members[userID][teamID], nil
}

func (m *memoryMembers) TeamsOf(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	teams := []string{}
	for id := range m.members[userID] {
		teams = append(teams, id)
	}
	sort.Strings(teams)
	return teams, nil
}

func (m *memoryMembers) Add(_ context.Context, userID, teamID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.members[userID] == nil {
		m.members[userID] = map[string]bool{}
	}
	m.members[userID][teamID] = true
	return nil
}

func (m *memoryMembers) Remove(_ context.Context, userID, teamID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.members[userID], teamID)
	return nil
}

func (m *memoryMembers) GetTeam(_ context.Context, teamID string) (*domain.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	team, ok := m.teams[teamID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &team, nil
}

type memoryUsers map[string]domain.User

func (m memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := m[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func requireDomainError(t *testing.T, err error, status int) *apperrors.DomainError {
	t.Helper()
	require.Error(t, err)
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %v", err)
	require.Equal(t, status, de.HTTPStatus)
	return de
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsStatus(list []domain.RequestStatus, v domain.RequestStatus) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
