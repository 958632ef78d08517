package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/diary-location-service/internal/domain"
)

// maxLocationRunes bounds a saved default location.
const maxLocationRunes = 64

var (
	errEmptyLocation   = errors.New("location must not be empty")
	errLocationTooLong = errors.New("location must be at most 64 characters")
)

type resolveRequest struct {
	UserID  string    `json:"user_id"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

type resolveResponse struct {
	Location string      `json:"location"`
	Display  string      `json:"display"`
	Tier     domain.Tier `json:"tier"`
	Matched  string      `json:"matched,omitempty"`
	Title    string      `json:"title"`
}

type locationBody struct {
	UserID   string `json:"user_id,omitempty"`
	Location string `json:"location"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	start := time.Now()
	res := s.api.Resolver.Resolve(r.Context(), req.Message, req.UserID)
	s.api.Metrics.ObserveResolution(res, time.Since(start))

	dict := s.api.Resolver.Dictionary()
	var title string
	if req.SentAt.IsZero() {
		title = s.api.Titles.BuildNow(res)
	} else {
		title = s.api.Titles.Build(req.SentAt, res)
	}

	sharedobs.WriteJSON(w, http.StatusOK, resolveResponse{
		Location: res.Location,
		Display:  dict.DisplayName(res.Location),
		Tier:     res.Tier,
		Matched:  res.Matched,
		Title:    title,
	})
}

func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	loc, ok, err := s.api.Store.Get(r.Context(), userID)
	if err != nil {
		s.logger.Error("get user location", "user_id", userID, "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "store unavailable"})
		return
	}
	if !ok {
		sharedobs.WriteJSON(w, http.StatusNotFound, errorBody{Error: "no saved location"})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, locationBody{UserID: userID, Location: loc})
}

func (s *Server) handleSetLocation(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	var body locationBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	loc, err := s.normalizeSavedLocation(body.Location)
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	if err := s.api.Store.Set(r.Context(), userID, loc); err != nil {
		s.logger.Error("set user location", "user_id", userID, "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "store unavailable"})
		return
	}
	s.logger.Info("user location saved", "user_id", userID, "location", loc)
	sharedobs.WriteJSON(w, http.StatusOK, locationBody{UserID: userID, Location: loc})
}

func (s *Server) handleDeleteLocation(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if err := s.api.Store.Delete(r.Context(), userID); err != nil {
		s.logger.Error("delete user location", "user_id", userID, "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "store unavailable"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListLocations(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.api.Resolver.Dictionary().Entries())
}

// normalizeSavedLocation trims the input and maps a known name to its
// canonical id. Unknown names are kept as typed.
func (s *Server) normalizeSavedLocation(raw string) (string, error) {
	loc := strings.TrimSpace(raw)
	if loc == "" {
		return "", errEmptyLocation
	}
	if utf8.RuneCountInString(loc) > maxLocationRunes {
		return "", errLocationTooLong
	}
	if e, ok := s.api.Resolver.Dictionary().Lookup(loc); ok {
		return e.CanonicalID, nil
	}
	return loc, nil
}
