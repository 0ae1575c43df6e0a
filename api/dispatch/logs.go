package dispatch

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/kilianp07/drt/core/dispatch/logging"
)

// NewLogHandler returns an HTTP handler exposing dispatch decisions via
// GET /api/dispatch/decisions.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
func NewLogHandler(store logging.LogStore, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		v := r.URL.Query()
		q := logging.LogQuery{
			RequestID: v.Get("request_id"),
			VehicleID: v.Get("vehicle_id"),
		}
		var err error
		if q.FromTick, err = tickParam(v.Get("from_tick")); err != nil {
			http.Error(w, "invalid from_tick", http.StatusBadRequest)
			return
		}
		if q.ToTick, err = tickParam(v.Get("to_tick")); err != nil {
			http.Error(w, "invalid to_tick", http.StatusBadRequest)
			return
		}
		switch o := logging.Outcome(v.Get("outcome")); o {
		case "", logging.OutcomeAssigned, logging.OutcomeRejected:
			q.Outcome = o
		default:
			http.Error(w, "invalid outcome", http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []logging.LogRecord{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

func tickParam(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
