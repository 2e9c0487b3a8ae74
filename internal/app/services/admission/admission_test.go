package admission_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/admission"
	memberstore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/members"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/apperr"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/authz"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/joincode"
	"github.com/Bas3L3ss/slackzz-clone/internal/domain/models"
	"github.com/Bas3L3ss/slackzz-clone/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type env struct {
	svc *admission.Service
	fx  *testutil.Fixtures
	ws  models.Workspace
}

func setup(t *testing.T) (env, context.Context) {
	t.Helper()
	db := testutil.SetupIndexedTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)

	fx := testutil.NewFixtures(t, db)
	ws := fx.CreateWorkspace(ctx, "Acme", "owner", "ab12cd")
	fx.AddMember(ctx, ws.ID, "owner", models.RoleAdmin)

	gate := authz.NewGate(memberstore.New(db), zap.NewNop())
	return env{svc: admission.New(db, gate, zap.NewNop()), fx: fx, ws: ws}, ctx
}

func members(ctx context.Context, t *testing.T, db *mongo.Database, ws primitive.ObjectID, userID string) int64 {
	t.Helper()
	n, err := db.Collection("members").CountDocuments(ctx, bson.M{"workspace_id": ws, "user_id": userID})
	if err != nil {
		t.Fatalf("count members: %v", err)
	}
	return n
}

func TestJoin(t *testing.T) {
	e, ctx := setup(t)
	newbie := authz.Caller{UserID: "newbie"}

	tests := []struct {
		name    string
		caller  authz.Caller
		ws      primitive.ObjectID
		code    string
		wantErr error
	}{
		{"unknown workspace", newbie, primitive.NewObjectID(), "ab12cd", apperr.ErrWorkspaceNotFound},
		{"wrong code", newbie, e.ws.ID, "zzzzzz", apperr.ErrInvalidJoinCode},
		{"padded code", newbie, e.ws.ID, " ab12cd ", apperr.ErrInvalidJoinCode},
		{"already member", authz.Caller{UserID: "owner"}, e.ws.ID, "ab12cd", apperr.ErrAlreadyMember},
		{"unauthenticated", authz.Caller{}, e.ws.ID, "ab12cd", apperr.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Join(ctx, tt.caller, tt.ws, tt.code)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Join err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if n := members(ctx, t, e.fx.DB(), e.ws.ID, "newbie"); n != 0 {
		t.Fatalf("failed joins wrote %d member rows", n)
	}

	m, err := e.svc.Join(ctx, newbie, e.ws.ID, "ab12cd")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if m.Role != models.RoleMember || m.UserID != "newbie" {
		t.Errorf("joined member = %+v", m)
	}

	if _, err := e.svc.Join(ctx, newbie, e.ws.ID, "ab12cd"); !errors.Is(err, apperr.ErrAlreadyMember) {
		t.Errorf("second Join err = %v, want ErrAlreadyMember", err)
	}
	if n := members(ctx, t, e.fx.DB(), e.ws.ID, "newbie"); n != 1 {
		t.Errorf("member rows = %d, want 1", n)
	}
}

func TestJoin_CodeIsCaseInsensitive(t *testing.T) {
	e, ctx := setup(t)

	if _, err := e.svc.Join(ctx, authz.Caller{UserID: "upper"}, e.ws.ID, "AB12CD"); err != nil {
		t.Fatalf("Join with uppercase code: %v", err)
	}
	if _, err := e.svc.Join(ctx, authz.Caller{UserID: "lower"}, e.ws.ID, "ab12cd"); err != nil {
		t.Fatalf("Join with lowercase code: %v", err)
	}
}

func TestRotate(t *testing.T) {
	e, ctx := setup(t)
	e.fx.AddMember(ctx, e.ws.ID, "plain", models.RoleMember)

	if _, err := e.svc.Rotate(ctx, authz.Caller{UserID: "plain"}, e.ws.ID); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("Rotate by member err = %v, want ErrUnauthorized", err)
	}

	code, err := e.svc.Rotate(ctx, authz.Caller{UserID: "owner"}, e.ws.ID)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if !joincode.Valid(code) {
		t.Errorf("rotated code %q is not a valid join code", code)
	}

	if code != "ab12cd" {
		_, err = e.svc.Join(ctx, authz.Caller{UserID: "late"}, e.ws.ID, "ab12cd")
		if !errors.Is(err, apperr.ErrInvalidJoinCode) {
			t.Errorf("Join with old code err = %v, want ErrInvalidJoinCode", err)
		}
	}
	if _, err := e.svc.Join(ctx, authz.Caller{UserID: "late"}, e.ws.ID, strings.ToUpper(code)); err != nil {
		t.Errorf("Join with new code: %v", err)
	}
}

func TestInfo(t *testing.T) {
	e, ctx := setup(t)

	info, err := e.svc.Info(ctx, authz.Caller{UserID: "visitor"}, e.ws.ID)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info == nil || info.Name != "Acme" || info.IsMember {
		t.Errorf("visitor info = %+v", info)
	}

	info, err = e.svc.Info(ctx, authz.Caller{UserID: "owner"}, e.ws.ID)
	if err != nil || info == nil || !info.IsMember {
		t.Errorf("owner info = %+v, err = %v", info, err)
	}

	if info, err := e.svc.Info(ctx, authz.Caller{UserID: "owner"}, primitive.NewObjectID()); info != nil || err != nil {
		t.Errorf("missing workspace info = %+v, err = %v", info, err)
	}
	if info, err := e.svc.Info(ctx, authz.Caller{}, e.ws.ID); info != nil || err != nil {
		t.Errorf("anonymous info = %+v, err = %v", info, err)
	}
}
