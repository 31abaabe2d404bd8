package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lox/coindart/internal/game"
	"github.com/lox/coindart/internal/store"
)

type healthResponse struct {
	Status      string     `json:"status"`
	State       game.State `json:"state"`
	Connections int        `json:"connections"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		State:       s.match.Snapshot().State,
		Connections: s.ConnectionCount(),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, SessionData{Session: s.match.Snapshot()})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := readJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	snap, err := s.match.Start(req.Players, req.StartingScore)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, SessionData{Session: snap})
}

func (s *Server) handleResetSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, SessionData{Session: s.match.Reset()})
}

func (s *Server) handleSubmitTurn(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if err := readJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	snap, err := s.submitTurn(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionData{Session: snap})
}

func (s *Server) handleUndo(w http.ResponseWriter, _ *http.Request) {
	snap, applied := s.match.Undo()
	writeJSON(w, http.StatusOK, ActionData{Applied: applied, Session: snap})
}

func (s *Server) handleAddPenalty(w http.ResponseWriter, r *http.Request) {
	var req PenaltyRequest
	if err := readJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	snap, err := s.addPenalty(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionData{Session: snap})
}

func (s *Server) handleUndoPenalty(w http.ResponseWriter, r *http.Request) {
	id, ok := playerID(w, r)
	if !ok {
		return
	}
	snap, applied := s.match.UndoPenalty(id)
	writeJSON(w, http.StatusOK, ActionData{Applied: applied, Session: snap})
}

func (s *Server) handleNextRound(w http.ResponseWriter, r *http.Request) {
	rec, snap, err := s.match.NextRound(r.Context())
	writeRound(w, rec, snap, err)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	rec, snap, err := s.match.End(r.Context())
	writeRound(w, rec, snap, err)
}

func writeRound(w http.ResponseWriter, rec store.GameRecord, snap game.Snapshot, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	data := RoundData{Session: snap}
	if rec.ID != "" {
		data.Record = &rec
	}
	writeJSON(w, http.StatusOK, data)
}

type turnStatsResponse struct {
	PlayerID  int     `json:"playerId"`
	Turns     int     `json:"turns"`
	Darts     int     `json:"darts"`
	Mean      float64 `json:"mean"`
	PerDart   float64 `json:"perDart"`
	StdDev    float64 `json:"stdDev"`
	Median    float64 `json:"median"`
	Highest   int     `json:"highest"`
	Busts     int     `json:"busts"`
	BustRate  float64 `json:"bustRate"`
	Checkouts int     `json:"checkouts"`
	Tons      int     `json:"tons"`
	Maximums  int     `json:"maximums"`
}

func (s *Server) handleTurnStats(w http.ResponseWriter, r *http.Request) {
	id, ok := playerID(w, r)
	if !ok {
		return
	}
	ts, found := s.match.TurnStats(id)
	if !found {
		writeJSON(w, http.StatusNotFound, ErrorData{Code: "not_found", Message: "no player with id " + strconv.Itoa(id)})
		return
	}
	writeJSON(w, http.StatusOK, turnStatsResponse{
		PlayerID:  id,
		Turns:     ts.Turns,
		Darts:     ts.Darts,
		Mean:      ts.Mean(),
		PerDart:   ts.PerDart(),
		StdDev:    ts.StdDev(),
		Median:    ts.Median(),
		Highest:   ts.Highest,
		Busts:     ts.Busts,
		BustRate:  ts.BustRate(),
		Checkouts: ts.Checkouts,
		Tons:      ts.Tons,
		Maximums:  ts.Maximums,
	})
}

func (s *Server) handlePlayerStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.match.Statistics(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	records, err := s.match.History(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []store.GameRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

type presetResponse struct {
	Key    string  `json:"key"`
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

func (s *Server) handlePresets(w http.ResponseWriter, _ *http.Request) {
	presets := s.match.Presets()
	out := make([]presetResponse, 0, len(presets))
	for _, p := range presets {
		out = append(out, presetResponse{Key: p.Key, Amount: p.Amount, Reason: p.Reason.String()})
	}
	writeJSON(w, http.StatusOK, out)
}

func playerID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "player id must be an integer")
		return 0, false
	}
	return id, true
}
