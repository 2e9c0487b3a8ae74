// Package admission admits users into workspaces through the rotating join
// code.
package admission

import (
	"context"
	"errors"
	"fmt"

	memberstore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/members"
	workspacestore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/workspaces"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/apperr"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/authz"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/joincode"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/normalize"
	"github.com/Bas3L3ss/slackzz-clone/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Service struct {
	workspaces *workspacestore.Store
	members    *memberstore.Store
	gate       *authz.Gate
	log        *zap.Logger
}

func New(db *mongo.Database, gate *authz.Gate, log *zap.Logger) *Service {
	return &Service{
		workspaces: workspacestore.New(db),
		members:    memberstore.New(db),
		gate:       gate,
		log:        log,
	}
}

// Rotate replaces the workspace's join code and returns the new one.
// Codes handed out earlier stop working immediately.
func (s *Service) Rotate(ctx context.Context, caller authz.Caller, workspaceID primitive.ObjectID) (string, error) {
	if _, err := s.gate.RequireAdmin(ctx, caller, workspaceID); err != nil {
		return "", err
	}

	code, err := joincode.Generate()
	if err != nil {
		return "", err
	}
	if err := s.workspaces.SetJoinCode(ctx, workspaceID, code); err != nil {
		if errors.Is(err, workspacestore.ErrNotFound) {
			return "", apperr.ErrNotFound
		}
		return "", fmt.Errorf("set join code: %w", err)
	}

	s.log.Info("join code rotated",
		zap.String("workspace_id", workspaceID.Hex()),
		zap.String("user_id", caller.UserID))
	return code, nil
}

// Join admits the caller into workspaceID as a plain member.
// Every check runs before the single insert, so a failed join writes nothing.
func (s *Service) Join(ctx context.Context, caller authz.Caller, workspaceID primitive.ObjectID, suppliedCode string) (models.Member, error) {
	if !caller.Authenticated() {
		return models.Member{}, apperr.ErrUnauthorized
	}

	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, workspacestore.ErrNotFound) {
			return models.Member{}, apperr.ErrWorkspaceNotFound
		}
		return models.Member{}, fmt.Errorf("load workspace: %w", err)
	}

	if normalize.JoinCode(suppliedCode) != ws.JoinCode {
		return models.Member{}, apperr.ErrInvalidJoinCode
	}

	existing, err := s.members.FindByWorkspaceUser(ctx, workspaceID, caller.UserID)
	if err != nil {
		return models.Member{}, fmt.Errorf("lookup membership: %w", err)
	}
	if len(existing) > 0 {
		return models.Member{}, apperr.ErrAlreadyMember
	}

	m, err := s.members.Add(ctx, workspaceID, caller.UserID, models.RoleMember)
	if err != nil {
		if errors.Is(err, memberstore.ErrDuplicateMember) {
			return models.Member{}, apperr.ErrAlreadyMember
		}
		return models.Member{}, fmt.Errorf("add member: %w", err)
	}

	s.log.Info("user joined workspace",
		zap.String("workspace_id", workspaceID.Hex()),
		zap.String("user_id", caller.UserID),
		zap.String("member_id", m.ID.Hex()))
	return m, nil
}

// Info is what a join page may show before the caller is a member.
type Info struct {
	Name     string `json:"name"`
	IsMember bool   `json:"is_member"`
}

// Info describes workspaceID to any signed-in caller. It returns nil for a
// missing workspace or an unauthenticated caller.
func (s *Service) Info(ctx context.Context, caller authz.Caller, workspaceID primitive.ObjectID) (*Info, error) {
	if !caller.Authenticated() {
		return nil, nil
	}
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, workspacestore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	_, err = s.gate.RequireMember(ctx, caller, workspaceID)
	if err != nil && !errors.Is(err, apperr.ErrUnauthorized) {
		return nil, err
	}
	return &Info{Name: ws.Name, IsMember: err == nil}, nil
}
