package verification

import (
	"strings"
	"sync"
	"time"

	"github.com/gateward/gateward/internal/model"
)

// Stage is the current phase of a verification session
type Stage int

const (
	// StageChat is the textual-response stage: echo the challenge code
	StageChat Stage = iota
	// StageMovement is the ordered orientation-hold stage
	StageMovement
	// StageCompleted is the successful terminal stage
	StageCompleted
	// StageFailed is the unsuccessful terminal stage
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageChat:
		return "chat"
	case StageMovement:
		return "movement"
	case StageCompleted:
		return "completed"
	case StageFailed:
		return "failed"
	}
	return "unknown"
}

// terminal reports whether no further transitions are possible
func (s Stage) terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// ChatResult is the outcome of one inbound chat message
type ChatResult int

const (
	// ChatIgnored: the message arrived outside the chat stage; no state change
	ChatIgnored ChatResult = iota
	// ChatMatched: the code matched; the session moved to the movement stage
	ChatMatched
	// ChatRetry: wrong code, attempts remain
	ChatRetry
	// ChatExhausted: wrong code and the attempt budget is spent
	ChatExhausted
)

// MoveResult is the outcome of one inbound orientation sample
type MoveResult struct {
	// Advanced is true when the current direction's hold completed
	Advanced bool
	// Completed is true when the whole direction queue is done
	Completed bool
	// Next is the direction now active, valid when Advanced && !Completed
	Next model.DirectionStep
}

// Session is the per-connection verification state machine.
//
// All inbound signals for a session are serialized by its mutex; the
// machine itself never blocks. currentStep is always within
// [0, len(steps)] and equals len(steps) only at the StageCompleted
// transition.
type Session struct {
	mu sync.Mutex

	connID    model.ConnectionID
	accountID model.AccountID
	username  string
	origin    string

	stage         Stage
	targetCode    string
	caseSensitive bool

	steps         []model.DirectionStep
	currentStep   int
	stepStartedAt time.Time

	attemptsUsed int
	maxAttempts  int

	lastActionAt time.Time

	// handled makes the terminal outcome at-most-once: whichever of
	// attempt exhaustion, timeout sweep, or completion flips it first
	// owns the outcome
	handled bool
}

// SessionParams carries everything needed to start a session
type SessionParams struct {
	ConnID        model.ConnectionID
	AccountID     model.AccountID
	Username      string
	OriginAddress string
	TargetCode    string
	CaseSensitive bool
	Steps         []model.DirectionStep
	MaxAttempts   int
}

// NewSession creates a session in the chat stage
func NewSession(p SessionParams, now time.Time) *Session {
	return &Session{
		connID:        p.ConnID,
		accountID:     p.AccountID,
		username:      p.Username,
		origin:        p.OriginAddress,
		stage:         StageChat,
		targetCode:    p.TargetCode,
		caseSensitive: p.CaseSensitive,
		steps:         p.Steps,
		maxAttempts:   p.MaxAttempts,
		lastActionAt:  now,
	}
}

// HandleChat processes a textual message. Messages outside the chat stage
// are deliberately ignored. Returns the transition result and, for
// ChatRetry, the number of attempts remaining.
func (s *Session) HandleChat(text string, now time.Time) (ChatResult, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageChat {
		return ChatIgnored, 0
	}

	s.lastActionAt = now

	input := strings.TrimSpace(text)
	target := s.targetCode
	if !s.caseSensitive {
		input = strings.ToUpper(input)
		target = strings.ToUpper(target)
	}

	if input == target {
		if len(s.steps) == 0 {
			s.stage = StageCompleted
			return ChatMatched, 0
		}
		s.stage = StageMovement
		s.currentStep = 0
		s.stepStartedAt = now
		return ChatMatched, 0
	}

	s.attemptsUsed++
	if s.attemptsUsed >= s.maxAttempts {
		s.stage = StageFailed
		return ChatExhausted, 0
	}
	return ChatRetry, s.maxAttempts - s.attemptsUsed
}

// HandleOrientation processes an orientation sample against the active
// direction. The hold must be contiguous: any out-of-window sample resets
// the hold timer. Samples outside the movement stage are ignored.
func (s *Session) HandleOrientation(yaw, pitch float64, now time.Time, cls *Classifier) MoveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageMovement {
		return MoveResult{}
	}

	s.lastActionAt = now

	step := s.steps[s.currentStep]
	if !cls.InWindow(step.Direction, yaw, pitch) {
		s.stepStartedAt = now
		return MoveResult{}
	}

	if now.Sub(s.stepStartedAt) < step.Hold {
		return MoveResult{}
	}

	s.currentStep++
	s.stepStartedAt = now
	if s.currentStep == len(s.steps) {
		s.stage = StageCompleted
		return MoveResult{Advanced: true, Completed: true}
	}
	return MoveResult{Advanced: true, Next: s.steps[s.currentStep]}
}

// Expired reports whether the session has gone without inbound signals
// longer than the response timeout. Terminal sessions never expire.
func (s *Session) Expired(now time.Time, timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage.terminal() || s.handled {
		return false
	}
	return now.Sub(s.lastActionAt) > timeout
}

// MarkHandled claims the session's single terminal outcome. Only the
// first caller gets true; everyone racing it must stand down.
func (s *Session) MarkHandled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handled {
		return false
	}
	s.handled = true
	if !s.stage.terminal() {
		s.stage = StageFailed
	}
	return true
}

// Accessors

func (s *Session) ConnID() model.ConnectionID { return s.connID }
func (s *Session) AccountID() model.AccountID { return s.accountID }
func (s *Session) Username() string           { return s.username }
func (s *Session) OriginAddress() string      { return s.origin }

// Stage returns the session's current stage
func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// TargetCode returns the code the user must echo
func (s *Session) TargetCode() string { return s.targetCode }

// AttemptsUsed returns how many chat attempts have been spent
func (s *Session) AttemptsUsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attemptsUsed
}

// CurrentStep returns the index of the active direction entry
func (s *Session) CurrentStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentStep
}

// ActiveDirection returns the direction entry the session is waiting on.
// Only meaningful during the movement stage.
func (s *Session) ActiveDirection() (model.DirectionStep, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageMovement || s.currentStep >= len(s.steps) {
		return model.DirectionStep{}, false
	}
	return s.steps[s.currentStep], true
}
