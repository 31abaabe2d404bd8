package game

import (
	"strings"
	"time"
)

// PenaltyReason labels a penalty. The predefined reasons cover the board
// penalties and the automatic ones; any other non-empty label is a custom
// reason.
type PenaltyReason string

const (
	ReasonOuterBoard     PenaltyReason = "Hit Outer Board"
	ReasonBust           PenaltyReason = "Bust"
	ReasonMissedBoard    PenaltyReason = "Missed Board"
	ReasonRemainingScore PenaltyReason = "Remaining Score"
)

func (r PenaltyReason) String() string {
	return string(r)
}

// IsCustom reports whether r is not one of the predefined reasons.
func (r PenaltyReason) IsCustom() bool {
	switch r {
	case ReasonOuterBoard, ReasonBust, ReasonMissedBoard, ReasonRemainingScore:
		return false
	}
	return true
}

// PenaltyRecord is one entry in a player's penalty ledger.
type PenaltyRecord struct {
	Seq       uint64        `json:"seq"`
	Amount    float64       `json:"amount"`
	Reason    PenaltyReason `json:"reason"`
	Timestamp time.Time     `json:"timestamp"`
}

// PenaltyPreset is a fixed penalty offered to the presentation layer.
type PenaltyPreset struct {
	Key    string
	Amount float64
	Reason PenaltyReason
}

// DefaultPenaltyPresets are the board penalties of the standard game.
var DefaultPenaltyPresets = []PenaltyPreset{
	{Key: "outer_board", Amount: 1, Reason: ReasonOuterBoard},
	{Key: "bust", Amount: 5, Reason: ReasonBust},
	{Key: "missed_board", Amount: 10, Reason: ReasonMissedBoard},
}

// FindPreset looks a preset up by key, case-insensitively.
func FindPreset(presets []PenaltyPreset, key string) (PenaltyPreset, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, p := range presets {
		if p.Key == key {
			return p, true
		}
	}
	return PenaltyPreset{}, false
}

// Ledger is the session-scoped penalty account of one player. It survives
// round changes and is only cleared by a new session.
type Ledger struct {
	Total   float64         `json:"total"`
	Records []PenaltyRecord `json:"records"`
}

func (l *Ledger) add(rec PenaltyRecord) {
	l.Total += rec.Amount
	l.Records = append(l.Records, rec)
}

// pop removes the most recent record. The total never drops below zero.
func (l *Ledger) pop() (PenaltyRecord, bool) {
	if len(l.Records) == 0 {
		return PenaltyRecord{}, false
	}
	rec := l.Records[len(l.Records)-1]
	l.Records = l.Records[:len(l.Records)-1]
	l.settle(rec.Amount)
	return rec, true
}

// remove deletes the record with the given sequence number wherever it sits.
func (l *Ledger) remove(seq uint64) (PenaltyRecord, bool) {
	for i := len(l.Records) - 1; i >= 0; i-- {
		if l.Records[i].Seq != seq {
			continue
		}
		rec := l.Records[i]
		l.Records = append(l.Records[:i], l.Records[i+1:]...)
		l.settle(rec.Amount)
		return rec, true
	}
	return PenaltyRecord{}, false
}

// settle deducts a removed amount. An empty ledger owes exactly zero.
func (l *Ledger) settle(amount float64) {
	if len(l.Records) == 0 {
		l.Total = 0
		return
	}
	l.Total = max(0, l.Total-amount)
}

// Last returns the most recent record, if any.
func (l Ledger) Last() (PenaltyRecord, bool) {
	if len(l.Records) == 0 {
		return PenaltyRecord{}, false
	}
	return l.Records[len(l.Records)-1], true
}

func (l Ledger) clone() Ledger {
	records := make([]PenaltyRecord, len(l.Records))
	copy(records, l.Records)
	return Ledger{Total: l.Total, Records: records}
}
