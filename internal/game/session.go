package game

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// Config seats a new session.
type Config struct {
	// PlayerCount, when positive, limits how many of PlayerNames are seated.
	PlayerCount   int
	StartingScore int
	PlayerNames   []string
}

// DefaultStartingScore is the score every player counts down from.
const DefaultStartingScore = 180

// DefaultPlayerNames returns placeholder names for n seats.
func DefaultPlayerNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("Player %d", i+1)
	}
	return names
}

// Session is the state machine of one CoinDart session. It owns every
// player, turn and penalty record. A Session is not safe for concurrent
// use; callers serialise access.
type Session struct {
	id            string
	state         State
	startingScore int
	players       []*Player
	current       int
	winner        *Player
	history       []HistoryEntry
	round         int
	results       []RoundResult
	stats         SessionStats
	startedAt     time.Time
	nextSeq       uint64

	clock       quartz.Clock
	logger      *log.Logger
	limits      TurnLimits
	bustPenalty float64
	undo        UndoPolicy
	subscribers []Subscriber
	newID       func() string
}

// NewSession returns an empty session in the NotStarted state.
func NewSession(opts ...Option) *Session {
	cfg := defaultSessionConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Session{
		clock:       cfg.clock,
		logger:      cfg.logger.WithPrefix("session"),
		limits:      cfg.limits,
		bustPenalty: cfg.bustPenalty,
		undo:        cfg.undo,
		subscribers: cfg.subscribers,
		newID:       cfg.newID,
	}
	s.clear()
	return s
}

func (s *Session) clear() {
	s.id = ""
	s.state = NotStarted
	s.startingScore = 0
	s.players = nil
	s.current = 0
	s.winner = nil
	s.history = nil
	s.round = 1
	s.results = nil
	s.stats = SessionStats{PlayerWins: map[int]int{}}
	s.startedAt = time.Time{}
	s.nextSeq = 0
}

// Subscribe adds a transition callback after construction.
func (s *Session) Subscribe(sub Subscriber) {
	s.subscribers = append(s.subscribers, sub)
}

// State returns the lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Limits returns the turn limits in force.
func (s *Session) Limits() TurnLimits {
	return s.limits
}

// Initialize seats the players and starts round one. Empty names are
// dropped; at least two must remain. On error the session is unchanged.
func (s *Session) Initialize(cfg Config) error {
	names := cfg.PlayerNames
	if cfg.PlayerCount > 0 && cfg.PlayerCount < len(names) {
		names = names[:cfg.PlayerCount]
	}
	seated := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			seated = append(seated, name)
		}
	}
	if len(seated) < 2 {
		return fmt.Errorf("%w: need at least 2 named players, got %d", ErrInvalidConfiguration, len(seated))
	}
	if cfg.StartingScore <= 0 {
		return fmt.Errorf("%w: starting score must be positive, got %d", ErrInvalidConfiguration, cfg.StartingScore)
	}

	s.clear()
	s.id = s.newID()
	s.startingScore = cfg.StartingScore
	s.players = make([]*Player, len(seated))
	for i, name := range seated {
		s.players[i] = &Player{
			ID:     i,
			Name:   name,
			Round:  newRoundState(cfg.StartingScore),
			Ledger: Ledger{Records: []PenaltyRecord{}},
		}
	}
	s.startedAt = s.clock.Now()
	s.state = InProgress

	s.logger.Info("Session started", "id", s.id, "players", len(s.players), "starting_score", s.startingScore)
	s.emit(EventTypeInitialized, -1)
	return nil
}

// CurrentPlayer returns a copy of the player whose turn it is.
func (s *Session) CurrentPlayer() (Player, bool) {
	if !s.state.Started() || len(s.players) == 0 {
		return Player{}, false
	}
	return s.players[s.current].clone(), true
}

// CanUndo reports whether UndoLastAction would take a turn back.
func (s *Session) CanUndo() bool {
	return len(s.history) > 0 && (s.state == InProgress || s.state == RoundWon)
}

// UpdatePlayerScore records a turn for playerID whose outcome the caller
// has already computed with ValidateScore. A bust penalty is the caller's
// job. Unknown players are ignored.
func (s *Session) UpdatePlayerScore(playerID, newScore int, darts []int, bust bool) error {
	p := s.lookup(playerID)
	if p == nil {
		s.logger.Warn("Ignoring turn for unknown player", "player", playerID)
		return nil
	}
	if s.state != InProgress {
		return fmt.Errorf("%w: state is %s", ErrNotInProgress, s.state)
	}
	if err := s.limits.CheckTurn(darts); err != nil {
		return err
	}

	v := ValidateScore(p.Round.Score, SumDarts(darts))
	if v.Bust != bust || v.NewScore != newScore {
		return fmt.Errorf("%w: %s at %d cannot move to %d (bust=%t) with %v",
			ErrInvalidTurn, p.Name, p.Round.Score, newScore, bust, darts)
	}

	s.applyTurn(p, darts, v)
	return nil
}

// SubmitTurn scores darts for the current player in one transition: the
// throws are validated, a bust is charged the configured penalty and the
// turn is recorded.
func (s *Session) SubmitTurn(darts []int) error {
	if err := s.limits.CheckDarts(darts); err != nil {
		return err
	}
	return s.submit(darts)
}

// SubmitTotal scores a whole-turn total entered without individual darts.
func (s *Session) SubmitTotal(total int) error {
	if err := s.limits.CheckTotal(total); err != nil {
		return err
	}
	return s.submit([]int{total})
}

func (s *Session) submit(darts []int) error {
	if s.state != InProgress {
		return fmt.Errorf("%w: state is %s", ErrNotInProgress, s.state)
	}
	p := s.players[s.current]
	v := ValidateScore(p.Round.Score, SumDarts(darts))
	if v.Bust && s.bustPenalty > 0 {
		s.charge(p, s.bustPenalty, ReasonBust)
	}
	s.applyTurn(p, darts, v)
	return nil
}

// applyTurn is the single place a turn mutates the session. It handles
// winner detection, remaining score conversion and rotation.
func (s *Session) applyTurn(p *Player, darts []int, v ScoreValidation) {
	now := s.clock.Now()
	darts = append([]int(nil), darts...)

	turn := TurnRecord{
		Darts:         darts,
		PreviousScore: p.Round.Score,
		NewScore:      v.NewScore,
		Bust:          v.Bust,
		Timestamp:     now,
	}
	p.Round.Score = v.NewScore
	p.Round.ScoreHistory = append(p.Round.ScoreHistory, v.NewScore)
	p.Round.Turns = append(p.Round.Turns, turn)

	entry := HistoryEntry{
		PlayerID:      p.ID,
		Darts:         append([]int(nil), darts...),
		PreviousScore: turn.PreviousScore,
		NewScore:      turn.NewScore,
		Bust:          turn.Bust,
		Timestamp:     now,
	}

	event := EventTypeTurn
	switch {
	case p.Round.Score == 0:
		event = EventTypeWin
		s.winner = p
		s.state = RoundWon
		for _, other := range s.players {
			if other == p || other.Round.Score <= 0 {
				continue
			}
			rec := s.charge(other, float64(other.Round.Score), ReasonRemainingScore)
			entry.Conversions = append(entry.Conversions, Conversion{PlayerID: other.ID, Seq: rec.Seq})
		}
		s.logger.Info("Round won", "round", s.round, "winner", p.Name, "converted", len(entry.Conversions))
	case v.Bust:
		event = EventTypeBust
		s.logger.Debug("Bust", "player", p.Name, "score", p.Round.Score, "thrown", SumDarts(darts))
		s.current = (s.current + 1) % len(s.players)
	default:
		s.logger.Debug("Turn", "player", p.Name, "from", turn.PreviousScore, "to", turn.NewScore)
		s.current = (s.current + 1) % len(s.players)
	}

	s.history = append(s.history, entry)
	s.emit(event, p.ID)
}

// AddPenalty charges playerID. It is legal in any state and neither rotates
// the turn nor touches the undo stack. Unknown players are ignored.
func (s *Session) AddPenalty(playerID int, amount float64, reason PenaltyReason) error {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("%w: amount must be positive, got %v", ErrInvalidPenalty, amount)
	}
	if strings.TrimSpace(string(reason)) == "" {
		return fmt.Errorf("%w: reason is required", ErrInvalidPenalty)
	}
	p := s.lookup(playerID)
	if p == nil {
		s.logger.Warn("Ignoring penalty for unknown player", "player", playerID)
		return nil
	}
	s.charge(p, amount, reason)
	s.emit(EventTypePenaltyAdded, p.ID)
	return nil
}

func (s *Session) charge(p *Player, amount float64, reason PenaltyReason) PenaltyRecord {
	s.nextSeq++
	rec := PenaltyRecord{
		Seq:       s.nextSeq,
		Amount:    amount,
		Reason:    reason,
		Timestamp: s.clock.Now(),
	}
	p.Ledger.add(rec)
	s.logger.Debug("Penalty", "player", p.Name, "amount", amount, "reason", reason)
	return rec
}

// UndoPenalty removes the most recent penalty of playerID. It reports
// whether anything was removed.
func (s *Session) UndoPenalty(playerID int) bool {
	p := s.lookup(playerID)
	if p == nil {
		s.logger.Warn("Ignoring penalty undo for unknown player", "player", playerID)
		return false
	}
	rec, ok := p.Ledger.pop()
	if !ok {
		s.logger.Debug("No penalty to undo", "player", p.Name)
		return false
	}
	s.logger.Debug("Penalty undone", "player", p.Name, "amount", rec.Amount, "reason", rec.Reason)
	s.emit(EventTypePenaltyUndone, p.ID)
	return true
}

// UndoLastAction takes back the most recent turn of the round and reports
// whether there was one. Any pending win is cancelled.
func (s *Session) UndoLastAction() bool {
	if !s.CanUndo() {
		s.logger.Debug("Nothing to undo", "state", s.state)
		return false
	}

	entry := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]

	p := s.lookup(entry.PlayerID)
	p.Round.Score = entry.PreviousScore
	if n := len(p.Round.ScoreHistory); n > 1 {
		p.Round.ScoreHistory = p.Round.ScoreHistory[:n-1]
	}
	if n := len(p.Round.Turns); n > 0 {
		p.Round.Turns = p.Round.Turns[:n-1]
	}

	if s.undo.RevertConversion {
		for _, c := range entry.Conversions {
			if other := s.lookup(c.PlayerID); other != nil {
				other.Ledger.remove(c.Seq)
			}
		}
	}

	switch {
	case s.undo.RestoreActingSeat:
		s.current = entry.PlayerID
	case entry.PlayerID > 0:
		s.current = entry.PlayerID - 1
	default:
		s.current = len(s.players) - 1
	}

	s.winner = nil
	s.state = InProgress

	s.logger.Debug("Turn undone", "player", p.Name, "score", p.Round.Score)
	s.emit(EventTypeUndo, p.ID)
	return true
}

// StartNewRound records the finished round and deals a fresh one. Scores
// and turn histories reset; penalty ledgers carry over.
func (s *Session) StartNewRound() error {
	if s.state != RoundWon {
		return fmt.Errorf("%w: state is %s", ErrNoWinner, s.state)
	}
	s.closeRound()

	for _, p := range s.players {
		p.Round = newRoundState(s.startingScore)
	}
	s.winner = nil
	s.history = nil
	s.round++
	s.current = 0
	s.state = InProgress

	s.logger.Info("Round started", "round", s.round)
	s.emit(EventTypeRoundStarted, -1)
	return nil
}

// End records the finished round and closes the session. Only Reset leaves
// the Ended state.
func (s *Session) End() error {
	if s.state != RoundWon {
		return fmt.Errorf("%w: state is %s", ErrNoWinner, s.state)
	}
	s.closeRound()
	s.state = Ended

	s.logger.Info("Session ended", "id", s.id, "rounds", s.stats.TotalRounds)
	s.emit(EventTypeEnded, -1)
	return nil
}

func (s *Session) closeRound() {
	result := RoundResult{
		Round:     s.round,
		Winner:    PlayerRef{ID: s.winner.ID, Name: s.winner.Name},
		Players:   make([]RoundStanding, len(s.players)),
		Timestamp: s.clock.Now(),
	}
	for i, p := range s.players {
		result.Players[i] = RoundStanding{
			ID:         p.ID,
			Name:       p.Name,
			FinalScore: p.Round.Score,
			Penalties:  p.Ledger.Total,
			Turns:      len(p.Round.Turns),
		}
	}
	s.results = append(s.results, result)
	s.stats.TotalRounds++
	s.stats.PlayerWins[s.winner.ID]++
}

// Reset discards the whole session. Persisting it is the caller's concern
// and must happen first.
func (s *Session) Reset() {
	s.logger.Info("Session reset", "id", s.id)
	s.clear()
	s.emit(EventTypeReset, -1)
}

func (s *Session) lookup(playerID int) *Player {
	if playerID < 0 || playerID >= len(s.players) {
		return nil
	}
	return s.players[playerID]
}

// Snapshot returns a deep copy of the current session.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:            s.id,
		State:         s.state,
		StartingScore: s.startingScore,
		Players:       make([]Player, len(s.players)),
		CurrentPlayer: s.current,
		History:       make([]HistoryEntry, len(s.history)),
		CurrentRound:  s.round,
		RoundResults:  make([]RoundResult, len(s.results)),
		Stats: SessionStats{
			TotalRounds: s.stats.TotalRounds,
			PlayerWins:  make(map[int]int, len(s.stats.PlayerWins)),
		},
		StartedAt: s.startedAt,
		TakenAt:   s.clock.Now(),
	}
	for i, p := range s.players {
		snap.Players[i] = p.clone()
	}
	if s.winner != nil {
		snap.Winner = &PlayerRef{ID: s.winner.ID, Name: s.winner.Name}
	}
	for i, e := range s.history {
		e.Darts = append([]int(nil), e.Darts...)
		e.Conversions = append([]Conversion(nil), e.Conversions...)
		snap.History[i] = e
	}
	for i, r := range s.results {
		r.Players = append([]RoundStanding(nil), r.Players...)
		snap.RoundResults[i] = r
	}
	for id, wins := range s.stats.PlayerWins {
		snap.Stats.PlayerWins[id] = wins
	}
	return snap
}

func (s *Session) emit(eventType EventType, playerID int) {
	if len(s.subscribers) == 0 {
		return
	}
	snap := s.Snapshot()
	event := Event{Type: eventType, PlayerID: playerID, Timestamp: snap.TakenAt}
	for _, sub := range s.subscribers {
		sub(event, snap)
	}
}
