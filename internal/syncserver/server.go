package syncserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the sync API over the given store.
func NewRouter(store Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/data/{email}", handleGetData(store))
	r.Post("/api/data", handlePostData(store))

	return r
}

// handleGetData returns the stored snapshot, or JSON null when the email
// has never synced.
func handleGetData(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := chi.URLParam(r, "email")
		data, err := store.Get(r.Context(), email)
		if err != nil {
			slog.Error("failed to load snapshot", "email", email, "error", err)
			writeJSONError(w, http.StatusInternalServerError, "database error")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if data == nil {
			w.Write([]byte("null"))
			return
		}
		w.Write(data)
	}
}

type postDataRequest struct {
	Email string          `json:"email"`
	Data  json.RawMessage `json:"data"`
}

// handlePostData upserts the snapshot for the email in the request body.
func handlePostData(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req postDataRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Email == "" || len(req.Data) == 0 {
			writeJSONError(w, http.StatusBadRequest, "missing email or data")
			return
		}

		if err := store.Put(r.Context(), req.Email, req.Data); err != nil {
			slog.Error("failed to save snapshot", "email", req.Email, "error", err)
			writeJSONError(w, http.StatusInternalServerError, "database error")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"message": "Data saved successfully",
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
