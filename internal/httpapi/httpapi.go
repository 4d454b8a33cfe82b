// Package httpapi exposes a Database over HTTP: a single POST /batch
// endpoint accepting a JSON array of engine.Operation and returning a JSON
// array of engine.Result (spec §6). It is deliberately the entire wire
// surface; there is no REST-per-table shape.
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/griffi-gh/awfuldb/internal/engine"
)

// Handler serves the batch endpoint against db.
type Handler struct {
	DB *engine.Database
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var ops []engine.Operation
	if err := json.NewDecoder(r.Body).Decode(&ops); err != nil {
		log.Printf("httpapi: decoding batch: %v", err)
		writeError(w, err)
		return
	}

	results, err := h.DB.PerformBatch(ops)
	if err != nil {
		log.Printf("httpapi: batch failed: %v", err)
		writeError(w, err)
		return
	}

	if err := h.DB.Sync(); err != nil {
		log.Printf("httpapi: sync failed: %v", err)
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(results); err != nil {
		log.Printf("httpapi: encoding response: %v", err)
	}
}

// writeError reports err to the client as a JSON string at HTTP 500,
// mirroring the result shape a batch element would use on success (spec
// §7: errors abort the whole batch, there is no partial result, and the
// transport status is always 500 regardless of error kind).
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(err.Error())
}

// NewServeMux returns a mux with Handler wired to POST /batch.
func NewServeMux(db *engine.Database) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/batch", &Handler{DB: db})
	return mux
}
