package game

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/coindart/internal/recordid"
)

// DefaultBustPenalty is the amount SubmitTurn charges for a bust.
const DefaultBustPenalty = 5.0

// UndoPolicy selects how UndoLastAction treats side effects of the undone
// turn. The zero value restores score and turn history only, leaves every
// penalty in place and passes the turn to the seat before the acting one.
type UndoPolicy struct {
	// RevertConversion removes the Remaining Score penalties created when
	// the undone turn won the round.
	RevertConversion bool

	// RestoreActingSeat hands the turn back to the player whose turn was
	// undone.
	RestoreActingSeat bool
}

// Option configures a Session during creation.
type Option func(*sessionConfig)

type sessionConfig struct {
	clock       quartz.Clock
	logger      *log.Logger
	limits      TurnLimits
	bustPenalty float64
	undo        UndoPolicy
	subscribers []Subscriber
	newID       func() string
}

func defaultSessionConfig() *sessionConfig {
	return &sessionConfig{
		clock:       quartz.NewReal(),
		logger:      log.New(io.Discard),
		limits:      DefaultTurnLimits,
		bustPenalty: DefaultBustPenalty,
		newID:       func() string { return recordid.New("session") },
	}
}

// WithClock sets the clock used for every timestamp.
func WithClock(clock quartz.Clock) Option {
	return func(c *sessionConfig) {
		c.clock = clock
	}
}

// WithLogger sets the logger. The session logs under the "session" prefix.
func WithLogger(logger *log.Logger) Option {
	return func(c *sessionConfig) {
		c.logger = logger
	}
}

// WithTurnLimits overrides the dart and turn ranges.
func WithTurnLimits(limits TurnLimits) Option {
	return func(c *sessionConfig) {
		c.limits = limits
	}
}

// WithBustPenalty sets the amount SubmitTurn charges on a bust. Zero
// disables the automatic penalty.
func WithBustPenalty(amount float64) Option {
	return func(c *sessionConfig) {
		c.bustPenalty = amount
	}
}

// WithUndoPolicy selects the undo behaviour.
func WithUndoPolicy(policy UndoPolicy) Option {
	return func(c *sessionConfig) {
		c.undo = policy
	}
}

// WithSubscriber registers a callback for every transition. It may be given
// more than once.
func WithSubscriber(sub Subscriber) Option {
	return func(c *sessionConfig) {
		c.subscribers = append(c.subscribers, sub)
	}
}

// WithIDGenerator replaces the session id generator.
func WithIDGenerator(newID func() string) Option {
	return func(c *sessionConfig) {
		c.newID = newID
	}
}
