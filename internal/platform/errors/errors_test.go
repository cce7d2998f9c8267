package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
)

func TestIsMatchesByCode(t *testing.T) {
	err := New(CodeNetworkUnavailable, "offline")
	if !stderrors.Is(err, New(CodeNetworkUnavailable, "different message")) {
		t.Fatal("errors with the same code must match")
	}
	if stderrors.Is(err, New(CodeRemoteTransport, "offline")) {
		t.Fatal("errors with different codes must not match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(CodeRemoteTransport, "directory request failed", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("wrapped cause must be reachable via errors.Is")
	}
	if err.Error() != "directory request failed" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	inner := New(CodeRemoteApplication, "bad status")
	wrapped := fmt.Errorf("refresh: %w", inner)
	if got := CodeOf(wrapped); got != CodeRemoteApplication {
		t.Fatalf("code = %q, want %q", got, CodeRemoteApplication)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("code = %q, want %q", got, CodeUnknown)
	}
	if got := CodeOf(nil); got != CodeUnknown {
		t.Fatalf("code = %q, want %q", got, CodeUnknown)
	}
}

func TestGRPCCodeMapping(t *testing.T) {
	cases := []struct {
		code Code
		want codes.Code
	}{
		{CodeNetworkUnavailable, codes.Unavailable},
		{CodeRemoteTransport, codes.Unavailable},
		{CodeRemoteApplication, codes.FailedPrecondition},
		{CodeNotFound, codes.NotFound},
		{CodeInvalidArgument, codes.InvalidArgument},
		{CodeStorageFailure, codes.Internal},
		{CodeUnknown, codes.Internal},
	}
	for _, tc := range cases {
		if got := tc.code.GRPCCode(); got != tc.want {
			t.Fatalf("%s.GRPCCode() = %v, want %v", tc.code, got, tc.want)
		}
	}
}
