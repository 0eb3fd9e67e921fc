package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Direction is a gaze direction the movement stage can ask for
type Direction string

const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// ParseDirection parses a direction token, case-insensitively
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case DirectionUp:
		return DirectionUp, nil
	case DirectionDown:
		return DirectionDown, nil
	case DirectionLeft:
		return DirectionLeft, nil
	case DirectionRight:
		return DirectionRight, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// DirectionStep is one entry of the movement stage's direction queue:
// a direction that must be held contiguously for Hold.
type DirectionStep struct {
	Direction Direction
	Hold      time.Duration
}

// ParseDirectionStep parses a "direction:seconds" config token, e.g. "up:2"
func ParseDirectionStep(s string) (DirectionStep, error) {
	name, secs, ok := strings.Cut(s, ":")
	if !ok {
		return DirectionStep{}, fmt.Errorf("%w: %q (want \"direction:seconds\")", ErrInvalidDirection, s)
	}
	dir, err := ParseDirection(name)
	if err != nil {
		return DirectionStep{}, err
	}
	hold, err := strconv.ParseFloat(strings.TrimSpace(secs), 64)
	if err != nil || hold <= 0 {
		return DirectionStep{}, fmt.Errorf("%w: %q (bad hold duration)", ErrInvalidDirection, s)
	}
	return DirectionStep{
		Direction: dir,
		Hold:      time.Duration(hold * float64(time.Second)),
	}, nil
}
