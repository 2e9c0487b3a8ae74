// internal/app/system/authz/authz.go
package authz

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/apperr"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/auth"
	"github.com/Bas3L3ss/slackzz-clone/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Caller is the explicit identity every service call carries.
// A zero Caller is unauthenticated.
type Caller struct {
	UserID string
}

// Authenticated reports whether the identity provider vouched for the caller.
func (c Caller) Authenticated() bool { return c.UserID != "" }

// CallerFrom builds a Caller from the session user in r's context.
// Requests without a signed-in user yield the zero Caller.
func CallerFrom(r *http.Request) Caller {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return Caller{}
	}
	return Caller{UserID: u.ID}
}

// MemberFinder is the membership lookup the gate depends on.
// memberstore.Store satisfies it.
type MemberFinder interface {
	FindByWorkspaceUser(ctx context.Context, workspaceID primitive.ObjectID, userID string) ([]models.Member, error)
}

// Gate answers "may this caller act in this workspace, and as whom?".
// It is the only place membership and role checks happen.
type Gate struct {
	members MemberFinder
	log     *zap.Logger
}

func NewGate(members MemberFinder, log *zap.Logger) *Gate {
	return &Gate{members: members, log: log}
}

// RequireMember returns the caller's Member record in workspaceID, or
// apperr.ErrUnauthorized when there is none.
func (g *Gate) RequireMember(ctx context.Context, caller Caller, workspaceID primitive.ObjectID) (models.Member, error) {
	if !caller.Authenticated() {
		return models.Member{}, apperr.ErrUnauthorized
	}

	rows, err := g.members.FindByWorkspaceUser(ctx, workspaceID, caller.UserID)
	if err != nil {
		return models.Member{}, fmt.Errorf("lookup membership: %w", err)
	}

	switch len(rows) {
	case 0:
		return models.Member{}, apperr.ErrUnauthorized
	case 1:
		return rows[0], nil
	default:
		iv := &apperr.InvariantViolation{
			Invariant: "unique membership",
			Detail:    fmt.Sprintf("user %s has %d member rows in workspace %s", caller.UserID, len(rows), workspaceID.Hex()),
		}
		g.log.DPanic("duplicate membership rows",
			zap.String("workspace_id", workspaceID.Hex()),
			zap.String("user_id", caller.UserID),
			zap.Int("rows", len(rows)))
		return models.Member{}, iv
	}
}

// RequireAdmin is RequireMember plus the admin role.
func (g *Gate) RequireAdmin(ctx context.Context, caller Caller, workspaceID primitive.ObjectID) (models.Member, error) {
	m, err := g.RequireMember(ctx, caller, workspaceID)
	if err != nil {
		return models.Member{}, err
	}
	if !m.IsAdmin() {
		return models.Member{}, apperr.ErrUnauthorized
	}
	return m, nil
}
