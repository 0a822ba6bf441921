package apierr_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/alnah/go-chunkscribe/internal/apierr"
)

func TestFromStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		msg    string
		want   error
	}{
		{name: "rate limit", status: http.StatusTooManyRequests, msg: "slow down", want: apierr.ErrRateLimit},
		{name: "quota", status: http.StatusTooManyRequests, msg: "You exceeded your current Quota", want: apierr.ErrQuotaExceeded},
		{name: "billing", status: http.StatusTooManyRequests, msg: "check billing details", want: apierr.ErrQuotaExceeded},
		{name: "unauthorized", status: http.StatusUnauthorized, msg: "invalid api key", want: apierr.ErrAuthFailed},
		{name: "gateway timeout", status: http.StatusGatewayTimeout, msg: "upstream", want: apierr.ErrTimeout},
		{name: "server error retryable", status: http.StatusServiceUnavailable, msg: "overloaded", want: apierr.ErrTimeout},
		{name: "bad request", status: http.StatusBadRequest, msg: "bad file", want: apierr.ErrBadRequest},
		{name: "payload too large", status: http.StatusRequestEntityTooLarge, msg: "25MB max", want: apierr.ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := apierr.FromStatus(tt.status, tt.msg)
			if !errors.Is(err, tt.want) {
				t.Errorf("FromStatus(%d, %q) = %v, want %v", tt.status, tt.msg, err, tt.want)
			}
		})
	}
}

func TestFromStatus_Unclassified(t *testing.T) {
	t.Parallel()

	err := apierr.FromStatus(http.StatusTeapot, "short and stout")
	for _, s := range []error{apierr.ErrRateLimit, apierr.ErrTimeout, apierr.ErrBadRequest, apierr.ErrAuthFailed} {
		if errors.Is(err, s) {
			t.Errorf("FromStatus(418) matched %v", s)
		}
	}
	if err.Error() != "HTTP 418: short and stout" {
		t.Errorf("FromStatus(418) = %q", err.Error())
	}
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	if err := apierr.FromContext(fmt.Errorf("post: %w", context.DeadlineExceeded)); !errors.Is(err, apierr.ErrTimeout) {
		t.Errorf("FromContext(deadline) = %v, want ErrTimeout", err)
	}
	other := errors.New("boom")
	if err := apierr.FromContext(other); err != other {
		t.Errorf("FromContext(other) = %v, want unchanged", err)
	}
}
