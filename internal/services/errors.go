package services

import "errors"

// Data service errors
var (
	// Dataset errors
	ErrNoDatasetLoaded = errors.New("no dataset loaded")

	// Lookup errors
	ErrStateNotFound     = errors.New("state not found")
	ErrIndicatorNotFound = errors.New("indicator not found")
)
