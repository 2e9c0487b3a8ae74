package errors_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/Bas3L3ss/slackzz-clone/internal/app/features/errors"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/apperr"
	"github.com/Bas3L3ss/slackzz-clone/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		authed bool
		want   int
	}{
		{apperr.ErrUnauthorized, false, http.StatusUnauthorized},
		{apperr.ErrUnauthorized, true, http.StatusForbidden},
		{fmt.Errorf("wrapped: %w", apperr.ErrNotFound), true, http.StatusNotFound},
		{apperr.ErrWorkspaceNotFound, true, http.StatusNotFound},
		{apperr.ErrInvalidJoinCode, true, http.StatusBadRequest},
		{apperr.ErrInvalidInput, true, http.StatusBadRequest},
		{apperr.ErrAlreadyMember, true, http.StatusConflict},
		{apperr.Malformed("bad op"), true, http.StatusUnprocessableEntity},
		{&apperr.InvariantViolation{Invariant: "x", Detail: "y"}, true, http.StatusInternalServerError},
		{fmt.Errorf("boom"), true, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got, _ := uierrors.StatusFor(tt.err, tt.authed); got != tt.want {
				t.Errorf("StatusFor = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRespond_HidesInternalDetail(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	el := uierrors.NewErrorLogger(zap.New(core))

	req := testutil.WithUser(httptest.NewRequest("GET", "/api/x", nil), "u1")
	rec := httptest.NewRecorder()
	el.Respond(rec, req, fmt.Errorf("mongo exploded: secret dsn"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var body uierrors.Body
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "internal" || body.Message != "" {
		t.Errorf("body = %+v, want bare internal error", body)
	}
	if logs.FilterMessage("request failed").Len() != 1 {
		t.Errorf("internal error was not logged")
	}
}

func TestRespond_ClientErrorCarriesMessage(t *testing.T) {
	el := uierrors.NewErrorLogger(zap.NewNop())
	rec := httptest.NewRecorder()
	el.Respond(rec, httptest.NewRequest("POST", "/api/x", nil), apperr.ErrUnauthorized)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	var body uierrors.Body
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Error != "unauthenticated" || body.Message == "" {
		t.Errorf("body = %+v", body)
	}
}
