package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/cbodonnell/tether/pkg/api/middleware"
	"github.com/cbodonnell/tether/pkg/log"
	"github.com/cbodonnell/tether/pkg/player"
	"github.com/cbodonnell/tether/pkg/repositories"
	"github.com/gorilla/mux"
)

// MaxSnapshotSize bounds the body of a snapshot upload.
const MaxSnapshotSize = 1 << 20

// authorizedPlayerID returns the playerID route variable when it belongs
// to the caller, writing the error response otherwise.
func authorizedPlayerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		log.Error("failed to get claims from context")
		http.Error(w, "Failed to get claims from context", http.StatusInternalServerError)
		return "", false
	}
	playerID := mux.Vars(r)["playerID"]
	if playerID == "" {
		http.Error(w, "Missing playerID", http.StatusBadRequest)
		return "", false
	}
	if playerID != claims.UID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return "", false
	}
	return playerID, true
}

func HandleGetSnapshot(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, ok := authorizedPlayerID(w, r)
		if !ok {
			return
		}

		snapshot, err := repository.LoadPlayerSnapshot(r.Context(), playerID)
		if err != nil {
			if repositories.IsNotFound(err) {
				http.Error(w, "Snapshot not found", http.StatusNotFound)
				return
			}
			log.Error("failed to load snapshot for %s: %v", playerID, err)
			http.Error(w, "Failed to load snapshot", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if _, err := io.WriteString(w, snapshot.Snapshot); err != nil {
			log.Error("failed to write snapshot: %v", err)
		}
	}
}

func HandlePutSnapshot(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, ok := authorizedPlayerID(w, r)
		if !ok {
			return
		}

		b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxSnapshotSize))
		if err != nil {
			http.Error(w, "Failed to read snapshot", http.StatusRequestEntityTooLarge)
			return
		}
		snapshot := string(b)
		if err := player.ValidateSnapshot(snapshot); err != nil {
			log.Debug("rejected snapshot for %s: %v", playerID, err)
			http.Error(w, "Invalid snapshot", http.StatusBadRequest)
			return
		}

		if err := repository.SavePlayerSnapshot(r.Context(), playerID, snapshot, time.Now().UnixMilli()); err != nil {
			log.Error("failed to save snapshot for %s: %v", playerID, err)
			http.Error(w, "Failed to save snapshot", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
