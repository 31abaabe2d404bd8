package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/lox/coindart/internal/statistics"
)

// Dataset is the full content of a store held in memory.
type Dataset struct {
	History   []GameRecord
	Profiles  map[string]Profile
	Analytics Analytics
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		History:   []GameRecord{},
		Profiles:  map[string]Profile{},
		Analytics: Analytics{Events: map[string]int{}},
	}
}

// DatasetFromExport validates an export and loads it. History is sorted
// newest first and capped at HistoryLimit.
func DatasetFromExport(e Export) (*Dataset, error) {
	if e.Version != ExportVersion {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, e.Version)
	}
	d := NewDataset()
	for _, p := range e.Profiles {
		if p.Key == "" {
			p.Key = ProfileKey(p.Name)
		}
		if p.Key == "" {
			return nil, fmt.Errorf("profile without a name")
		}
		d.Profiles[p.Key] = p
	}
	for _, rec := range e.History {
		if rec.ID == "" {
			return nil, fmt.Errorf("game record without an id")
		}
		d.History = append(d.History, rec.clone())
	}
	sortHistory(d.History)
	if len(d.History) > HistoryLimit {
		d.History = d.History[:HistoryLimit]
	}
	d.Analytics = e.Analytics.Clone()
	return d, nil
}

// Clone returns a deep copy that can be changed without touching d.
func (d *Dataset) Clone() *Dataset {
	c := &Dataset{
		History:   make([]GameRecord, len(d.History)),
		Profiles:  make(map[string]Profile, len(d.Profiles)),
		Analytics: d.Analytics.Clone(),
	}
	for i, rec := range d.History {
		c.History[i] = rec.clone()
	}
	for k, p := range d.Profiles {
		c.Profiles[k] = p
	}
	return c
}

// Record adds a game newest first, updates the participants' profiles and
// counts the game.
func (d *Dataset) Record(rec GameRecord) {
	d.History = append([]GameRecord{rec.clone()}, d.History...)
	if len(d.History) > HistoryLimit {
		d.History = d.History[:HistoryLimit]
	}
	for _, result := range rec.Players {
		p := d.Profiles[result.Key]
		p.Apply(rec, result)
		d.Profiles[result.Key] = p
	}
	d.Analytics.Track(EventGameCompleted, rec.RecordedAt)
}

// PlayerStatistics summarises one profile against the stored history.
func (d *Dataset) PlayerStatistics(key string, now time.Time) (statistics.PlayerStatistics, error) {
	key = ProfileKey(key)
	p, ok := d.Profiles[key]
	if !ok {
		return statistics.PlayerStatistics{}, fmt.Errorf("player %q: %w", key, ErrNotFound)
	}
	var outcomes []statistics.GameOutcome
	for _, rec := range d.History {
		if o, ok := rec.Outcome(key); ok {
			outcomes = append(outcomes, o)
		}
	}
	return statistics.Summarize(p.Name, p.Totals, outcomes, now), nil
}

// Recent returns up to limit records, newest first.
func (d *Dataset) Recent(limit int) []GameRecord {
	n := len(d.History)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]GameRecord, n)
	for i := range out {
		out[i] = d.History[i].clone()
	}
	return out
}

// SortedProfiles returns every profile ordered by key.
func (d *Dataset) SortedProfiles() []Profile {
	out := make([]Profile, 0, len(d.Profiles))
	for _, p := range d.Profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Export snapshots the dataset.
func (d *Dataset) Export(now time.Time) Export {
	return Export{
		Version:    ExportVersion,
		ExportedAt: now,
		Profiles:   d.SortedProfiles(),
		History:    d.Recent(0),
		Analytics:  d.Analytics.Clone(),
	}
}

func (r GameRecord) clone() GameRecord {
	r.Players = append([]PlayerResult(nil), r.Players...)
	return r
}

func sortHistory(history []GameRecord) {
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].RecordedAt.After(history[j].RecordedAt)
	})
}
