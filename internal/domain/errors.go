package domain

import "errors"

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("viewer not identified")
	ErrUserNotFound    = errors.New("user not found")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("not allowed to modify this resource")
	// ErrRetrieval оборачивает любой сбой при сборке ленты или списка комментариев.
	ErrRetrieval = errors.New("failed to retrieve data, refresh and try again")
)
