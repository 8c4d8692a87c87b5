package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/glowcircle/glow/internal/domain"
)

// ─── Points API ─────────────────────────────────────────────────────────────
// Business rejections (already checked in, cap reached, rate limited) come
// back as HTTP 200 with {ok:false, message} so the UI shows the message
// without special-casing status codes. Only persistence failures are 5xx.
//
// GET    /api/points/balance                  — totals, streak, remaining cap
// GET    /api/points/history?n=20             — recent events, newest first
// POST   /api/points/checkin                  — daily check-in
// DELETE /api/points/checkin                  — undo today's check-in
// POST   /api/points/tasks/{taskID}/complete  — routine task point
// DELETE /api/points/tasks/{taskID}/complete  — undo routine task point
// POST   /api/points/referrals                — referral reward
// POST   /api/points/earn                     — open-ended earn
// POST   /api/points/grants                   — once-only bonus
// POST   /api/points/events/{eventID}/reverse — generic reversal
// POST   /api/points/reset                    — dev only, wipe everything
// GET    /api/notices/live                    — achievement notice SSE feed

// handleBalance returns current totals and counters.
// GET /api/points/balance
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	b := s.engine.Balance()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lifetime":        b.Lifetime,
		"available":       b.Available,
		"streak_days":     s.engine.StreakDays(),
		"referral_count":  s.engine.ReferralCount(),
		"remaining_today": s.engine.RemainingToday(),
	})
}

// handleHistory returns the n most recent ledger events.
// GET /api/points/history?n=20
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	n := 20
	if q := r.URL.Query().Get("n"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "invalid history length")
			return
		}
		n = v
	}
	events := s.engine.RecentEvents(n)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

// writeResult maps an engine outcome onto the wire: 200 either way for
// business outcomes, 500 only when persistence failed.
func writeResult(w http.ResponseWriter, res domain.Result, err error) {
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleCheckIn records today's check-in.
// POST /api/points/checkin
func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.CheckIn()
	writeResult(w, res, err)
}

// handleUndoCheckIn reverses today's check-in.
// DELETE /api/points/checkin
func (s *Server) handleUndoCheckIn(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.UndoCheckIn()
	writeResult(w, res, err)
}

// handleCompleteTask awards a routine-task point.
// POST /api/points/tasks/{taskID}/complete
func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	if taskID == "" {
		writeError(w, http.StatusBadRequest, "task id required")
		return
	}
	res, err := s.engine.CompleteRoutineTask(taskID)
	writeResult(w, res, err)
}

// handleUndoTask reverses a routine-task point.
// DELETE /api/points/tasks/{taskID}/complete
func (s *Server) handleUndoTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	if taskID == "" {
		writeError(w, http.StatusBadRequest, "task id required")
		return
	}
	res, err := s.engine.UndoRoutineTask(taskID)
	writeResult(w, res, err)
}

// handleAddReferral rewards a successful referral.
// POST /api/points/referrals
func (s *Server) handleAddReferral(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.AddReferral()
	writeResult(w, res, err)
}

// earnRequest is the open-ended earn payload.
type earnRequest struct {
	Delta      int64            `json:"delta"`
	Reason     string           `json:"reason"`
	Meta       domain.EventMeta `json:"meta"`
	Reversible bool             `json:"reversible"`
	RelatedID  string           `json:"related_id"`
}

// handleEarn appends an arbitrary validated event.
// POST /api/points/earn
func (s *Server) handleEarn(w http.ResponseWriter, r *http.Request) {
	var req earnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "reason required")
		return
	}
	res, err := s.engine.Earn(req.Delta, domain.Reason(req.Reason), req.Meta, req.Reversible, req.RelatedID)
	writeResult(w, res, err)
}

// grantRequest is the once-only bonus payload.
type grantRequest struct {
	Key    string `json:"key"`
	Delta  int64  `json:"delta"`
	Reason string `json:"reason"`
}

// handleGrantOnce awards a once-only bonus.
// POST /api/points/grants
func (s *Server) handleGrantOnce(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Key == "" || req.Reason == "" {
		writeError(w, http.StatusBadRequest, "key and reason required")
		return
	}
	res, err := s.engine.GrantOnce(req.Key, req.Delta, domain.Reason(req.Reason))
	writeResult(w, res, err)
}

// handleReverse appends a compensating event for a prior reversible event.
// POST /api/points/events/{eventID}/reverse
func (s *Server) handleReverse(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		writeError(w, http.StatusBadRequest, "event id required")
		return
	}
	res, err := s.engine.Reverse(eventID)
	writeResult(w, res, err)
}

// handleReset wipes the ledger, grants, counters, and streak.
// POST /api/points/reset (mounted only when dev endpoints are enabled).
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.ResetAll(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// handleNoticesSSE serves achievement notices via Server-Sent Events.
// GET /api/notices/live
func (s *Server) handleNoticesSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	ch, unsub := s.engine.Hub().Subscribe()
	defer unsub()

	for {
		select {
		case <-r.Context().Done():
			return
		case notice, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(notice)
			if err != nil {
				continue
			}
			w.Write([]byte("data: "))
			w.Write(data)
			w.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}
