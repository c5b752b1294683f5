package service

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"kvmeta/internal/catalog"
	"kvmeta/internal/coordinator"
	"kvmeta/internal/meta"
)

// errToStatus maps dispatcher failures onto grpc status codes. The table is
// fixed: every error kind has exactly one code, and errors that already
// carry a status pass through untouched. No retries happen here.
func errToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, catalog.ErrCollectionNotFound), errors.Is(err, catalog.ErrAliasNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, catalog.ErrCollectionExists), errors.Is(err, catalog.ErrAliasExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, meta.ErrInvalidConfig):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, coordinator.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, coordinator.ErrStopped):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
