package domain

import "errors"

var (
	ErrCarNotFound        = errors.New("car not found")
	ErrDriverNotFound     = errors.New("driver not found")
	ErrDuplicatePlate     = errors.New("car already exists")
	ErrAssignmentMismatch = errors.New("this assignment does not exist")
	ErrInvalidCoordinates = errors.New("invalid latitude or longitude")
	ErrInvalidPlate       = errors.New("invalid license plate")
	ErrInvalidDriverName  = errors.New("invalid driver name")
)
