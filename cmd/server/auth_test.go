package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSessionValueRoundTrip(t *testing.T) {
	auth := newAuthService(nil, "sqlite", "test-secret", time.Hour)

	value, err := auth.createSessionValue("admin@example.com")
	if err != nil {
		t.Fatalf("createSessionValue returned error: %v", err)
	}

	email, ok := auth.verifySessionValue(value)
	if !ok || email != "admin@example.com" {
		t.Fatalf("expected valid session for admin@example.com, got %q %v", email, ok)
	}
}

func TestSessionValueRejectsTampering(t *testing.T) {
	auth := newAuthService(nil, "sqlite", "test-secret", time.Hour)
	value, err := auth.createSessionValue("admin@example.com")
	if err != nil {
		t.Fatalf("createSessionValue returned error: %v", err)
	}

	other := newAuthService(nil, "sqlite", "other-secret", time.Hour)
	if _, ok := other.verifySessionValue(value); ok {
		t.Fatalf("expected session signed with another secret to be rejected")
	}
	if _, ok := auth.verifySessionValue(value + "x"); ok {
		t.Fatalf("expected modified session to be rejected")
	}
	if _, ok := auth.verifySessionValue(""); ok {
		t.Fatalf("expected empty session to be rejected")
	}
}

func TestSessionValueExpires(t *testing.T) {
	auth := newAuthService(nil, "sqlite", "test-secret", time.Hour)
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	auth.now = func() time.Time { return issued }

	value, err := auth.createSessionValue("admin@example.com")
	if err != nil {
		t.Fatalf("createSessionValue returned error: %v", err)
	}

	auth.now = func() time.Time { return issued.Add(59 * time.Minute) }
	if _, ok := auth.verifySessionValue(value); !ok {
		t.Fatalf("expected session to be valid before expiry")
	}

	auth.now = func() time.Time { return issued.Add(61 * time.Minute) }
	if _, ok := auth.verifySessionValue(value); ok {
		t.Fatalf("expected session to expire")
	}
}

func TestSetSessionCookie(t *testing.T) {
	auth := newAuthService(nil, "sqlite", "test-secret", 2*time.Hour)

	rr := httptest.NewRecorder()
	if err := auth.setSessionCookie(rr, "admin@example.com"); err != nil {
		t.Fatalf("setSessionCookie returned error: %v", err)
	}

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookieName {
		t.Fatalf("expected one session cookie, got %+v", cookies)
	}
	if !cookies[0].HttpOnly || cookies[0].MaxAge != 7200 {
		t.Fatalf("unexpected cookie attributes: %+v", cookies[0])
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	if email, ok := auth.sessionEmail(req); !ok || email != "admin@example.com" {
		t.Fatalf("expected session email from cookie, got %q %v", email, ok)
	}
}
