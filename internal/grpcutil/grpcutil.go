package grpcutil

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorCode extracts a gRPC error code from an error. If the error is not a
// gRPC error, it returns codes.Unknown.
func ErrorCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}

	if st, ok := status.FromError(err); ok {
		return st.Code()
	}

	return codes.Unknown
}

func IsCanceled(err error) bool {
	return ErrorCode(err) == codes.Canceled || errors.Is(err, context.Canceled)
}

// IsTimeout reports whether the call failed because its deadline expired,
// either locally or on the remote side.
func IsTimeout(err error) bool {
	return ErrorCode(err) == codes.DeadlineExceeded || errors.Is(err, context.DeadlineExceeded)
}
