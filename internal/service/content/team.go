package content

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"lodestar/internal/domain"
	"lodestar/internal/domain/models"
	"lodestar/internal/domain/repositories"
	"lodestar/internal/domain/services"
)

const maxTeamNameLength = 255

type teamService struct {
	teamRepo       repositories.TeamRepository
	membershipRepo repositories.MembershipRepository
	txManager      repositories.TransactionManager
	cache          services.CapabilityCache
	logger         *slog.Logger
}

// NewTeamService creates a new team service
func NewTeamService(
	teamRepo repositories.TeamRepository,
	membershipRepo repositories.MembershipRepository,
	txManager repositories.TransactionManager,
	cache services.CapabilityCache,
	logger *slog.Logger,
) services.TeamService {
	return &teamService{
		teamRepo:       teamRepo,
		membershipRepo: membershipRepo,
		txManager:      txManager,
		cache:          cache,
		logger:         logger,
	}
}

// CreateTeam creates a team with the creator as owner and first member
func (s *teamService) CreateTeam(ctx context.Context, ownerUserID, name string) (*models.Team, error) {
	if err := validation.Validate(name, validation.Required, validation.Length(1, maxTeamNameLength)); err != nil {
		return nil, fmt.Errorf("%w: name: %v", domain.ErrValidation, err)
	}

	team := &models.Team{
		ID:          uuid.NewString(),
		Name:        name,
		OwnerUserID: ownerUserID,
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.teamRepo.Create(txCtx, team); err != nil {
			return err
		}
		return s.membershipRepo.AddMember(txCtx, &models.TeamMembership{
			TeamID: team.ID,
			UserID: ownerUserID,
			Role:   models.TeamRoleOwner,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("team created", "id", team.ID, "name", name, "owner", ownerUserID)

	return team, nil
}

// GetTeam retrieves a team; only members can see it
func (s *teamService) GetTeam(ctx context.Context, userID, teamID string) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("team %s: %w", teamID, domain.ErrResourceHidden)
	}

	member, err := s.membershipRepo.IsMember(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, fmt.Errorf("team %s: %w", teamID, domain.ErrResourceHidden)
	}

	return team, nil
}

// AddMember adds a user to a team. Team-inherited folder grants apply to the
// new member from the next evaluation, so their cached capabilities are
// dropped.
func (s *teamService) AddMember(ctx context.Context, actorUserID, teamID, userID string) error {
	if err := s.requireTeamOwner(ctx, actorUserID, teamID); err != nil {
		return err
	}

	err := s.membershipRepo.AddMember(ctx, &models.TeamMembership{
		TeamID: teamID,
		UserID: userID,
		Role:   models.TeamRoleMember,
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.InvalidateUser(ctx, userID)
	}

	s.logger.Info("team member added", "team_id", teamID, "user_id", userID, "by", actorUserID)

	return nil
}

// RemoveMember removes a user from a team and drops their cached capabilities
func (s *teamService) RemoveMember(ctx context.Context, actorUserID, teamID, userID string) error {
	if err := s.requireTeamOwner(ctx, actorUserID, teamID); err != nil {
		return err
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	if userID == team.OwnerUserID {
		return fmt.Errorf("%w: cannot remove the team owner", domain.ErrValidation)
	}

	if err := s.membershipRepo.RemoveMember(ctx, teamID, userID); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.InvalidateUser(ctx, userID)
	}

	s.logger.Info("team member removed", "team_id", teamID, "user_id", userID, "by", actorUserID)

	return nil
}

// DeleteTeam deletes a team. Membership rows cascade with it, so grants held
// by the team stop resolving to any user on the next evaluation.
func (s *teamService) DeleteTeam(ctx context.Context, actorUserID, teamID string) error {
	if err := s.requireTeamOwner(ctx, actorUserID, teamID); err != nil {
		return err
	}

	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		return err
	}

	s.logger.Info("team deleted", "id", teamID, "by", actorUserID)

	return nil
}

func (s *teamService) requireTeamOwner(ctx context.Context, actorUserID, teamID string) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return fmt.Errorf("team %s: %w", teamID, domain.ErrResourceHidden)
	}
	if team.OwnerUserID != actorUserID {
		return fmt.Errorf("team %s: %w", teamID, domain.ErrForbidden)
	}
	return nil
}
