// Package errors provides structured error handling for directory services.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Refresh gating errors
	CodeNetworkUnavailable Code = "NETWORK_UNAVAILABLE"

	// Remote source errors
	CodeRemoteTransport   Code = "REMOTE_TRANSPORT"
	CodeRemoteApplication Code = "REMOTE_APPLICATION"

	// Storage errors
	CodeStorageFailure Code = "STORAGE_FAILURE"
	CodeNotFound       Code = "NOT_FOUND"

	// Validation errors
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// Internal errors
	CodeInternal Code = "INTERNAL"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeNetworkUnavailable:
		return codes.Unavailable
	case CodeRemoteTransport:
		return codes.Unavailable
	case CodeRemoteApplication:
		return codes.FailedPrecondition
	case CodeNotFound:
		return codes.NotFound
	case CodeInvalidArgument:
		return codes.InvalidArgument
	case CodeStorageFailure:
		return codes.Internal
	default:
		return codes.Internal
	}
}
