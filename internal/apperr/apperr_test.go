package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/skillswap/swapd/internal/apperr"
)

func TestIsMatchesKind(t *testing.T) {
	err := apperr.InvalidState("swap is %s", "accepted")
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("expected InvalidState to match sentinel")
	}
	if errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("InvalidState must not match NotFound")
	}

	wrapped := fmt.Errorf("accept: %w", err)
	if !errors.Is(wrapped, apperr.ErrInvalidState) {
		t.Fatalf("expected wrapped error to match sentinel")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "Validation", err: apperr.Validation("bad"), want: http.StatusBadRequest},
		{name: "InvalidState", err: apperr.InvalidState("bad"), want: http.StatusBadRequest},
		{name: "Duplicate", err: apperr.Duplicate("bad"), want: http.StatusBadRequest},
		{name: "Unauthenticated", err: apperr.Unauthenticated("bad"), want: http.StatusUnauthorized},
		{name: "Forbidden", err: apperr.Forbidden("bad"), want: http.StatusForbidden},
		{name: "NotFound", err: apperr.NotFound("bad"), want: http.StatusNotFound},
		{name: "Unexpected", err: apperr.Unexpected(errors.New("disk"), "bad"), want: http.StatusInternalServerError},
		{name: "Plain", err: errors.New("plain"), want: http.StatusInternalServerError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := apperr.HTTPStatus(c.err); got != c.want {
				t.Fatalf("want %d got %d", c.want, got)
			}
		})
	}
}

func TestMessageHidesInternals(t *testing.T) {
	err := apperr.Unexpected(errors.New("database is locked"), "failed to accept swap")
	if got := apperr.Message(err); got != "internal server error" {
		t.Fatalf("unexpected message leaked: %q", got)
	}
	if got := apperr.Message(apperr.NotFound("swap not found")); got != "swap not found" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestWrap(t *testing.T) {
	if apperr.Wrap(nil, "x") != nil {
		t.Fatalf("expected nil")
	}
	domain := apperr.Forbidden("nope")
	if got := apperr.Wrap(domain, "x"); got != domain {
		t.Fatalf("expected domain error to pass through")
	}
	if got := apperr.Wrap(errors.New("io"), "x"); apperr.KindOf(got) != apperr.KindUnexpected {
		t.Fatalf("expected Unexpected, got %v", apperr.KindOf(got))
	}
}
