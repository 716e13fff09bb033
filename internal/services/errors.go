package services

import "errors"

// Dashboard service errors
var (
	// Dataset errors
	ErrDatasetNotFound = errors.New("dataset file not found")
	ErrDatasetLoad     = errors.New("dataset could not be loaded")

	// Filter errors
	ErrEmptyFilterResult = errors.New("no records match the selected filters")
	ErrInvalidDateRange  = errors.New("from date must not be after to date")

	// Chart errors
	ErrUnknownChart = errors.New("unknown chart")
)
