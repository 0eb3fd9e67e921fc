package model

import "time"

// Decision is the admission gate's verdict for a new connection
type Decision string

const (
	// DecisionAllow lets the connection through to its real destination
	DecisionAllow Decision = "allow"
	// DecisionChallenge routes the connection into the holding environment
	DecisionChallenge Decision = "challenge"
	// DecisionDeny refuses the connection outright (active penalty window)
	DecisionDeny Decision = "deny"
)

// Admission is the full result of an admission decision
type Admission struct {
	Decision Decision
	// PenaltyRemaining is how long the penalty window has left to run.
	// Only set when Decision is DecisionDeny.
	PenaltyRemaining time.Duration
}
