package api

import (
	"net/http"
	"time"

	"trading-journal-go/internal/auth"
	"trading-journal-go/internal/journal"
	"trading-journal-go/internal/stats"
	"trading-journal-go/internal/validate"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler holds the services behind the HTTP endpoints.
type Handler struct {
	log      *zap.Logger
	auth     *auth.Service
	trades   *journal.TradeService
	missed   *journal.MissedTradeService
	accounts *journal.BrokerAccountService
	tokenTTL time.Duration
}

func NewHandler(log *zap.Logger, deps Deps) *Handler {
	return &Handler{
		log:      log,
		auth:     deps.Auth,
		trades:   deps.Trades,
		missed:   deps.MissedTrades,
		accounts: deps.BrokerAccounts,
		tokenTTL: deps.TokenTTL,
	}
}

// HealthHandler reports liveness without authentication.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"message":   "API is running",
		"timestamp": time.Now().UTC(),
	})
}

// Auth

func (h *Handler) sendToken(w http.ResponseWriter, status int, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.tokenTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, status, envelope{Success: true, Token: token})
}

func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var in validate.RegisterInput
	if err := decode(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	token, err := h.auth.Register(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.sendToken(w, http.StatusOK, token)
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var in validate.LoginInput
	if err := decode(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	token, err := h.auth.Login(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.sendToken(w, http.StatusOK, token)
}

func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    "none",
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
	})
	ok(w, http.StatusOK, struct{}{})
}

func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	u, err := h.auth.Me(r.Context(), CallerID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, u)
}

func (h *Handler) UpdateDetailsHandler(w http.ResponseWriter, r *http.Request) {
	var in validate.UpdateDetailsInput
	if err := decode(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.auth.UpdateDetails(r.Context(), CallerID(r.Context()), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, u)
}

func (h *Handler) UpdatePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var in validate.UpdatePasswordInput
	if err := decode(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	token, err := h.auth.UpdatePassword(r.Context(), CallerID(r.Context()), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.sendToken(w, http.StatusOK, token)
}

func (h *Handler) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.auth.UpdateSettings(r.Context(), CallerID(r.Context()), body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, u)
}

// Trades

func (h *Handler) ListTradesHandler(w http.ResponseWriter, r *http.Request) {
	page, err := h.trades.List(r.Context(), CallerID(r.Context()), r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	count := page.Count()
	writeJSON(w, http.StatusOK, envelope{Success: true, Count: &count, Pagination: &page.Pagination, Data: page.Data})
}

func (h *Handler) GetTradeHandler(w http.ResponseWriter, r *http.Request) {
	t, err := h.trades.Get(r.Context(), CallerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, t)
}

func (h *Handler) CreateTradeHandler(w http.ResponseWriter, r *http.Request) {
	var in validate.TradeInput
	if err := decode(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	t, err := h.trades.Create(r.Context(), CallerID(r.Context()), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ok(w, http.StatusCreated, t)
}

func (h *Handler) UpdateTradeHandler(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	t, err := h.trades.Update(r.Context(), CallerID(r.Context()), chi.URLParam(r, "id"), body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, t)
}

func (h *Handler) DeleteTradeHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.trades.Delete(r.Context(), CallerID(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, struct{}{})
}

func (h *Handler) TradeStatsHandler(w http.ResponseWriter, r *http.Request) {
	s, err := h.trades.Stats(r.Context(), CallerID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, s)
}

// breakdownHandler serves per-group performance for key.
func (h *Handler) breakdownHandler(key stats.KeyFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groups, err := h.trades.Breakdown(r.Context(), CallerID(r.Context()), key)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		okList(w, len(groups), groups)
	}
}

// Missed trades

func (h *Handler) ListMissedTradesHandler(w http.ResponseWriter, r *http.Request) {
	page, err := h.missed.List(r.Context(), CallerID(r.Context()), r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	count := page.Count()
	writeJSON(w, http.StatusOK, envelope{Success: true, Count: &count, Pagination: &page.Pagination, Data: page.Data})
}

func (h *Handler) GetMissedTradeHandler(w http.ResponseWriter, r *http.Request) {
	m, err := h.missed.Get(r.Context(), CallerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, m)
}

func (h *Handler) CreateMissedTradeHandler(w http.ResponseWriter, r *http.Request) {
	var in validate.MissedTradeInput
	if err := decode(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.missed.Create(r.Context(), CallerID(r.Context()), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ok(w, http.StatusCreated, m)
}

func (h *Handler) UpdateMissedTradeHandler(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.missed.Update(r.Context(), CallerID(r.Context()), chi.URLParam(r, "id"), body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, m)
}

func (h *Handler) DeleteMissedTradeHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.missed.Delete(r.Context(), CallerID(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, struct{}{})
}

func (h *Handler) MissedTradeStatsHandler(w http.ResponseWriter, r *http.Request) {
	s, err := h.missed.Stats(r.Context(), CallerID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, s)
}

// Broker accounts

func (h *Handler) ListBrokerAccountsHandler(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context(), CallerID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	okList(w, len(accounts), accounts)
}

func (h *Handler) GetBrokerAccountHandler(w http.ResponseWriter, r *http.Request) {
	b, err := h.accounts.Get(r.Context(), CallerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, b)
}

func (h *Handler) CreateBrokerAccountHandler(w http.ResponseWriter, r *http.Request) {
	var in validate.BrokerAccountInput
	if err := decode(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.accounts.Create(r.Context(), CallerID(r.Context()), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ok(w, http.StatusCreated, b)
}

func (h *Handler) UpdateBrokerAccountHandler(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.accounts.Update(r.Context(), CallerID(r.Context()), chi.URLParam(r, "id"), body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, b)
}

func (h *Handler) DeleteBrokerAccountHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Delete(r.Context(), CallerID(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, struct{}{})
}

func (h *Handler) SyncBrokerAccountHandler(w http.ResponseWriter, r *http.Request) {
	started, err := h.accounts.Sync(r.Context(), CallerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, started)
}

func (h *Handler) SyncHistoryHandler(w http.ResponseWriter, r *http.Request) {
	history, err := h.accounts.SyncHistory(r.Context(), CallerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	okList(w, len(history), history)
}
