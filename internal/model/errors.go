package model

import "errors"

// Common errors used across the application
var (
	// Record errors
	ErrRecordNotFound   = errors.New("player record not found")
	ErrInvalidAccountID = errors.New("invalid account id")

	// Session errors
	ErrSessionNotFound = errors.New("verification session not found")
	ErrSessionExists   = errors.New("verification session already exists for connection")

	// Configuration errors
	ErrInvalidDirection = errors.New("invalid direction")
)
