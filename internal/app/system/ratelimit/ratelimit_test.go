package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowAndReset(t *testing.T) {
	l := New(2, time.Minute)
	defer l.Stop()

	if !l.Allow("k") || !l.Allow("k") {
		t.Fatal("first two requests should pass")
	}
	if l.Allow("k") {
		t.Fatal("third request should be limited")
	}
	if got := l.Remaining("k"); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
	if !l.Allow("other") {
		t.Error("keys must not share a window")
	}

	l.Reset("k")
	if got := l.Remaining("k"); got != 2 {
		t.Errorf("Remaining after reset = %d, want 2", got)
	}
	l.Stop()
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := New(1, 20*time.Millisecond)
	defer l.Stop()

	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("second request inside window should be limited")
	}
	time.Sleep(30 * time.Millisecond)
	if !l.Allow("k") {
		t.Fatal("request after window should pass")
	}
}

func TestLimiter_FixedWindowResetsWholeCount(t *testing.T) {
	l := New(2, 200*time.Millisecond)
	defer l.Stop()

	l.Allow("k")
	time.Sleep(100 * time.Millisecond)
	if !l.Allow("k") {
		t.Fatal("second request inside window should pass")
	}
	if l.Allow("k") {
		t.Fatal("third request inside window should be limited")
	}

	// The window opened at the first request; once it ends the count starts
	// over even though the second request was recent.
	time.Sleep(150 * time.Millisecond)
	if !l.Allow("k") {
		t.Fatal("request in the next window should pass")
	}
	if got := l.Remaining("k"); got != 1 {
		t.Errorf("Remaining = %d, want 1", got)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "1.2.3.4:5", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": " 10.9.9.9 "}, "1.2.3.4:5", "10.9.9.9"},
		{"remote with port", nil, "1.2.3.4:5678", "1.2.3.4"},
		{"remote without port", nil, "1.2.3.4", "1.2.3.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJoinLimiter(t *testing.T) {
	jl := NewJoinLimiter(100, 2, time.Minute)
	defer jl.Stop()
	r := httptest.NewRequest("POST", "/", nil)

	if !jl.Check(r, "u1") || !jl.Check(r, "u1") {
		t.Fatal("first two attempts should pass")
	}
	if jl.Check(r, "u1") {
		t.Fatal("third attempt for u1 should be limited")
	}
	if !jl.Check(r, "u2") {
		t.Fatal("another user should not be limited")
	}
	jl.Succeeded("u1")
	if !jl.Check(r, "u1") {
		t.Fatal("success should clear the user's window")
	}
}
