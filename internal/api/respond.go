package api

import (
	"encoding/json"
	"io"
	"net/http"

	"trading-journal-go/internal/journal"
	"trading-journal-go/internal/query"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// envelope is the body of every API response except health.
type envelope struct {
	Success    bool              `json:"success"`
	Count      *int              `json:"count,omitempty"`
	Pagination *query.Pagination `json:"pagination,omitempty"`
	Data       any               `json:"data,omitempty"`
	Token      string            `json:"token,omitempty"`
	Error      string            `json:"error,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func ok(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func okList(w http.ResponseWriter, count int, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Count: &count, Data: data})
}

// writeError answers tagged errors with their own status. Anything else is a 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if e, isTagged := journal.AsError(err); isTagged {
		writeJSON(w, e.Status(), envelope{Error: e.Message, Fields: e.Fields})
		return
	}
	h.log.Error("Request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, envelope{Error: "Server Error"})
}

// decode reads a JSON body into dst.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return journal.BadRequest("Invalid request body: " + err.Error())
	}
	return nil
}

// readBody returns the raw body for merge updates.
func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, journal.BadRequest("Invalid request body: " + err.Error())
	}
	return body, nil
}
