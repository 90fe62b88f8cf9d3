package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/quake-feed/internal/domain"
)

// User-facing messages for the detail view.
const (
	msgEventNotFound    = "Earthquake not found."
	msgEventFetchFailed = "Failed to fetch earthquake details. Please try again later."
)

const maxRequestBytes = 1 << 16

type errorResponse struct {
	Error string `json:"error"`
}

// filtersRequest is a partial filter update. Region is kept raw so an
// explicit null (clear) can be told apart from an absent key (keep).
type filtersRequest struct {
	MinMagnitude  *float64        `json:"min_magnitude"`
	TimeRangeDays *int            `json:"time_range_days"`
	Region        json.RawMessage `json:"region"`
}

type regionRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	RadiusKm  *float64 `json:"radius_km"`
}

// tierResponse is one legend row. MaxMagnitude is absent for the open-ended
// top tier.
type tierResponse struct {
	Name         string   `json:"name"`
	Color        string   `json:"color"`
	MinMagnitude *float64 `json:"min_magnitude,omitempty"`
	MaxMagnitude *float64 `json:"max_magnitude,omitempty"`
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.store.State())
}

func (s *Server) handleUpdateFilters(w http.ResponseWriter, r *http.Request) {
	patch, err := s.decodeFilters(w, r)
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	// The cycle finishes even if the client goes away.
	st := s.store.UpdateFilters(context.WithoutCancel(r.Context()), patch)
	sharedobs.WriteJSON(w, http.StatusOK, st)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	st := s.store.Refresh(context.WithoutCancel(r.Context()))
	sharedobs.WriteJSON(w, http.StatusOK, st)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ev, err := s.store.LookupEvent(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		sharedobs.WriteJSON(w, http.StatusNotFound, errorResponse{Error: msgEventNotFound})
	case err != nil:
		s.logger.Warn("event lookup failed", "event_id", id, "error", err)
		sharedobs.WriteJSON(w, http.StatusBadGateway, errorResponse{Error: msgEventFetchFailed})
	default:
		sharedobs.WriteJSON(w, http.StatusOK, ev)
	}
}

func (s *Server) handleTiers(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, tierLegend(domain.Tiers()))
}

func (s *Server) decodeFilters(w http.ResponseWriter, r *http.Request) (domain.FilterPatch, error) {
	var req filtersRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return domain.FilterPatch{}, errors.New("invalid request body")
	}

	patch := domain.FilterPatch{
		MinMagnitude:  req.MinMagnitude,
		TimeRangeDays: req.TimeRangeDays,
	}
	if len(req.Region) == 0 {
		return patch, nil
	}

	patch.SetRegion = true
	if bytes.Equal(bytes.TrimSpace(req.Region), []byte("null")) {
		return patch, nil
	}
	var rr regionRequest
	if err := json.Unmarshal(req.Region, &rr); err != nil {
		return domain.FilterPatch{}, errors.New("invalid region")
	}
	patch.Region = domain.NewRegion(rr.Latitude, rr.Longitude, rr.RadiusKm)
	if patch.Region == nil {
		s.logger.Warn("partial region treated as global",
			"has_latitude", rr.Latitude != nil,
			"has_longitude", rr.Longitude != nil,
			"has_radius", rr.RadiusKm != nil,
		)
	}
	return patch, nil
}

func tierLegend(tiers []domain.Tier) []tierResponse {
	out := make([]tierResponse, len(tiers))
	lower := math.Inf(-1)
	for i, t := range tiers {
		row := tierResponse{Name: t.Name, Color: t.Color}
		if !math.IsInf(lower, -1) {
			lo := lower
			row.MinMagnitude = &lo
		}
		if !math.IsInf(t.Below, 1) {
			upper := t.Below
			row.MaxMagnitude = &upper
		}
		out[i] = row
		lower = t.Below
	}
	return out
}
