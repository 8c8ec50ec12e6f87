package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"lodestar/internal/domain"
	"lodestar/internal/domain/models"
	"lodestar/internal/domain/repositories"
)

// PostgresMembershipRepository implements the MembershipRepository interface
type PostgresMembershipRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(config *RepositoryConfig) repositories.MembershipRepository {
	return &PostgresMembershipRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// TeamsForUser returns the ids of every team the user belongs to
func (r *PostgresMembershipRepository) TeamsForUser(ctx context.Context, userID string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT team_id FROM %s WHERE user_id = $1
	`, r.tables.TeamMembers)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("teams for user: %w", err)
	}
	defer rows.Close()

	var teamIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan team id: %w", err)
		}
		teamIDs = append(teamIDs, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team ids: %w", err)
	}

	return teamIDs, nil
}

// IsMember reports whether the user belongs to the team
func (r *PostgresMembershipRepository) IsMember(ctx context.Context, teamID, userID string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (SELECT 1 FROM %s WHERE team_id = $1 AND user_id = $2)
	`, r.tables.TeamMembers)

	var exists bool
	if err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, teamID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return exists, nil
}

// AddMember links a user to a team
func (r *PostgresMembershipRepository) AddMember(ctx context.Context, m *models.TeamMembership) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (team_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (team_id, user_id) DO NOTHING
	`, r.tables.TeamMembers)

	_, err := GetExecutor(ctx, r.pool).Exec(ctx, query, m.TeamID, m.UserID, string(m.Role), m.CreatedAt)
	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("team %s: %w", m.TeamID, domain.ErrNotFound)
		}
		return fmt.Errorf("add team member: %w", err)
	}
	return nil
}

// RemoveMember unlinks a user from a team
func (r *PostgresMembershipRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE team_id = $1 AND user_id = $2
	`, r.tables.TeamMembers)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, teamID, userID)
	if err != nil {
		return fmt.Errorf("remove team member: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("membership of %s in team %s: %w", userID, teamID, domain.ErrNotFound)
	}

	return nil
}

// PostgresTeamRepository implements the TeamRepository interface
type PostgresTeamRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(config *RepositoryConfig) repositories.TeamRepository {
	return &PostgresTeamRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create creates a new team
func (r *PostgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, owner_user_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, r.tables.Teams)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		team.ID,
		team.Name,
		team.OwnerUserID,
		time.Now(),
	).Scan(&team.CreatedAt)

	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("team '%s': %w", team.Name, domain.ErrConflict)
		}
		return fmt.Errorf("create team: %w", err)
	}

	return nil
}

// GetByID retrieves a team by ID
func (r *PostgresTeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	query := fmt.Sprintf(`
		SELECT id, name, owner_user_id, created_at FROM %s WHERE id = $1
	`, r.tables.Teams)

	var team models.Team
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&team.ID,
		&team.Name,
		&team.OwnerUserID,
		&team.CreatedAt,
	)

	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("team %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get team: %w", err)
	}

	return &team, nil
}

// Delete deletes a team
func (r *PostgresTeamRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Teams)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("team %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
