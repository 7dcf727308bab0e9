package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flicky/medishop/internal/model"
	"github.com/flicky/medishop/internal/repository"
)

type RoleService struct {
	userRepo repository.UserRepository
	log      *slog.Logger
}

func NewRoleService(userRepo repository.UserRepository, log *slog.Logger) *RoleService {
	return &RoleService{userRepo: userRepo, log: log}
}

// Resolve never fails: an admins row wins, then the user's stored role,
// and anything missing, unknown or unreadable falls back to buyer.
func (s *RoleService) Resolve(ctx context.Context, userID uuid.UUID) model.Role {
	if userID == uuid.Nil {
		return model.RoleBuyer
	}

	log := s.log.With("user_id", userID)

	isAdmin, err := s.userRepo.IsAdmin(ctx, userID)
	if err != nil {
		log.Error("check admin", "error", err)
		return model.RoleBuyer
	}
	if isAdmin {
		return model.RoleAdmin
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		log.Error("get user role", "error", err)
		return model.RoleBuyer
	}
	if user == nil {
		return model.RoleBuyer
	}
	return model.ParseRole(string(user.Role))
}
