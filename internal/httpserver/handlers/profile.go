package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/qrcard/internal/domain"
	"github.com/MrSnakeDoc/qrcard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrcard/internal/profile"
)

type profileResponse struct {
	Owner     string          `json:"owner"`
	Directory domain.Snapshot `json:"directory"`
}

type editRequest struct {
	Edits []profile.Edit `json:"edits"`
}

// GetProfile returns the committed directory of the owner picked by src.
func GetProfile(d deps.Deps, src OwnerSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := src(r)
		snap, err := d.Profiles.Snapshot(r.Context(), owner)
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, profileResponse{Owner: owner, Directory: snap})
	}
}

// EditProfile applies one editing session (adds, pending deletes, undos and
// moves, in order) and commits it. The stored directory is replaced.
func EditProfile(d deps.Deps, src OwnerSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := src(r)

		var req editRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, d, err)
			return
		}

		snap, err := d.Profiles.Apply(r.Context(), owner, req.Edits)
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, profileResponse{Owner: owner, Directory: snap})
	}
}
