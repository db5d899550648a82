package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"chaos_market/internal/domain"
	"chaos_market/internal/infra"
)

type tradeRequest struct {
	User        string           `json:"user"`
	Symbol      string           `json:"symbol"`
	Action      string           `json:"action"`
	Shares      int64            `json:"shares"`
	CurrentCash *decimal.Decimal `json:"currentCash,omitempty"`
}

type issueRequest struct {
	User   string `json:"user"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Param  string `json:"param"`
}

type syncCashRequest struct {
	Cash decimal.Decimal `json:"cash"`
}

func (s *Server) handleGetStocks(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, s.engine.Stocks())
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if !decode(w, r, &req) {
		return
	}
	side, err := domain.ParseSide(req.Action)
	if err != nil {
		respondError(w, err)
		return
	}
	if req.Shares == 0 {
		req.Shares = 1
	}
	result, err := s.engine.ExecuteTrade(req.User, req.Symbol, side, req.Shares, req.CurrentCash)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"success": true, "result": result})
}

func (s *Server) handleIssueStock(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if !decode(w, r, &req) {
		return
	}
	stock, err := s.engine.IssueStock(req.User, req.Symbol, req.Name, req.Param)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"success": true, "stock": stock})
}

func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	view, err := s.engine.GetPortfolio(identity)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, view)
}

func (s *Server) handleResetPortfolio(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	cleared, err := s.engine.ResetPortfolio(identity)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"success": true, "cleared_stocks": cleared})
}

func (s *Server) handleSyncPlayerCash(w http.ResponseWriter, r *http.Request) {
	var req syncCashRequest
	if !decode(w, r, &req) {
		return
	}
	upd, err := s.engine.SyncPlayerCash(req.Cash)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"success": true, "update": upd})
}

func (s *Server) handleGetParameters(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, s.engine.Parameters())
}

func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, domain.Validationf("invalid limit %q", raw))
			return
		}
		limit = n
	}
	respond(w, http.StatusOK, s.engine.Leaderboard(limit))
}

func (s *Server) handleGetUsers(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, s.engine.Users())
}

func (s *Server) handleStartSession(w http.ResponseWriter, _ *http.Request) {
	start, err := s.engine.StartSession()
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"success": true, "started_at": start.StartedAt})
}

func (s *Server) handleGameStatus(w http.ResponseWriter, _ *http.Request) {
	st := s.engine.Status()
	respond(w, http.StatusOK, map[string]any{
		"start_time":         st.StartTime,
		"duration_ms":        st.Duration.Milliseconds(),
		"total_stocks":       st.TotalStocks,
		"total_participants": st.Participants,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, infra.GlobalMetrics.Snapshot())
}
