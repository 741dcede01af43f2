package nsgifts

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	sentinels := []struct {
		name string
		err  error
	}{
		{"ErrConnection", ErrConnection},
		{"ErrTimeout", ErrTimeout},
		{"ErrAuthentication", ErrAuthentication},
		{"ErrClient", ErrClient},
		{"ErrServer", ErrServer},
		{"ErrProtocol", ErrProtocol},
		{"ErrClientClosed", ErrClientClosed},
		{"ErrMissingCredentials", ErrMissingCredentials},
		{"ErrInvalidParams", ErrInvalidParams},
		{"ErrInvalidConfig", ErrInvalidConfig},
	}

	for _, s := range sentinels {
		t.Run(s.name, func(t *testing.T) {
			if s.err == nil {
				t.Error("sentinel error is nil")
			}
			if s.err.Error() == "" {
				t.Error("sentinel error has empty message")
			}
		})
	}
}

func TestError_IsMatchesKind(t *testing.T) {
	tests := []struct {
		kind   Kind
		target error
	}{
		{KindConnection, ErrConnection},
		{KindTimeout, ErrTimeout},
		{KindAuthentication, ErrAuthentication},
		{KindClient, ErrClient},
		{KindServer, ErrServer},
		{KindProtocol, ErrProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			err := fmt.Errorf("call: %w", &Error{Kind: tt.kind})
			if !errors.Is(err, tt.target) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.target)
			}
			for _, other := range tests {
				if other.kind != tt.kind && errors.Is(err, other.target) {
					t.Errorf("%s error also matches %v", tt.kind, other.target)
				}
			}
		})
	}
}

func TestError_As(t *testing.T) {
	var err error = &Error{Kind: KindClient, StatusCode: 422, Message: "quantity too low"}
	wrapped := fmt.Errorf("create order: %w", err)

	var apiErr *Error
	if !errors.As(wrapped, &apiErr) {
		t.Fatal("errors.As failed")
	}
	if apiErr.StatusCode != 422 {
		t.Errorf("StatusCode = %d, want 422", apiErr.StatusCode)
	}
	if apiErr.Retryable() {
		t.Error("client errors are not retryable")
	}
}

func TestInvalidParams(t *testing.T) {
	err := invalidParams("amount must be positive")
	if !errors.Is(err, ErrInvalidParams) {
		t.Error("should match ErrInvalidParams")
	}
	if !errors.Is(err, ErrClient) {
		t.Error("should match ErrClient")
	}
}
