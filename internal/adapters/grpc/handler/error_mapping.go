package handler

import (
	"errors"

	"github.com/ogurasousui/grpc-hr-clean-arch/internal/core/employee"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toStatusError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, employee.ErrInvalidMatricule),
		errors.Is(err, employee.ErrInvalidLastName),
		errors.Is(err, employee.ErrInvalidFirstName),
		errors.Is(err, employee.ErrInvalidPosition),
		errors.Is(err, employee.ErrInvalidEducationLevel),
		errors.Is(err, employee.ErrInvalidPartTimeRatio),
		errors.Is(err, employee.ErrInvalidRevenue),
		errors.Is(err, employee.ErrInvalidTarget),
		errors.Is(err, employee.ErrNotCommercial),
		errors.Is(err, employee.ErrInvalidRaise),
		errors.Is(err, employee.ErrInvalidPageSize),
		errors.Is(err, employee.ErrInvalidPageToken):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, employee.ErrMatriculeAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, employee.ErrMatriculeLimitReached):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, employee.ErrEmployeeNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
