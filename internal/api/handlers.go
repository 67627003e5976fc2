package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/birdstation/ebird-engine/internal/cleanup"
	"github.com/birdstation/ebird-engine/internal/regionpack"
)

// ConfidenceResponse is the JSON shape of a confidence lookup. Cell ids
// cross the serialization boundary as hex strings.
type ConfidenceResponse struct {
	Found           bool    `json:"found"`
	ConfidenceBoost float64 `json:"confidence_boost,omitempty"`
	ConfidenceTier  string  `json:"confidence_tier,omitempty"`
	MatchedCell     string  `json:"matched_cell,omitempty"`
	RingDistance    int     `json:"ring_distance"`
	RegionPack      string  `json:"region_pack,omitempty"`
}

// AllowedSpeciesResponse is the JSON shape of an allow-list lookup.
type AllowedSpeciesResponse struct {
	Strictness string   `json:"strictness"`
	Count      int      `json:"count"`
	Species    []string `json:"species"`
}

// CleanupRequest is the JSON body of the cleanup endpoints. Pack and
// resolution default to the active configuration.
type CleanupRequest struct {
	Strictness  string `json:"strictness"`
	RegionPack  string `json:"region_pack,omitempty"`
	Resolution  *int   `json:"resolution,omitempty"`
	Limit       int    `json:"limit,omitempty"`
	DeleteAudio bool   `json:"delete_audio,omitempty"`
}

// CleanupResponse mirrors cleanup.Stats.
type CleanupResponse struct {
	Evaluated         int      `json:"evaluated"`
	Removed           int      `json:"removed"`
	AudioFilesDeleted int      `json:"audio_files_deleted"`
	SpeciesAffected   []string `json:"species_affected"`
	RunID             string   `json:"run_id"`
}

func (s *Server) handleConfidence(c echo.Context) error {
	species := c.QueryParam("species")
	if species == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "species parameter is required")
	}

	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid lat parameter")
	}
	lon, err := strconv.ParseFloat(c.QueryParam("lon"), 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid lon parameter")
	}

	var month *time.Month
	if raw := c.QueryParam("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			return echo.NewHTTPError(http.StatusBadRequest, "month must be 1-12")
		}
		mm := time.Month(m)
		month = &mm
	}

	result, err := s.resolver.Resolve(c.Request().Context(), species, lat, lon, month)
	if err != nil {
		s.slogger.Error("confidence lookup failed", "species", species, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "confidence lookup failed")
	}

	if result == nil {
		return c.JSON(http.StatusOK, ConfidenceResponse{Found: false})
	}
	return c.JSON(http.StatusOK, ConfidenceResponse{
		Found:           true,
		ConfidenceBoost: result.ConfidenceBoost,
		ConfidenceTier:  result.ConfidenceTier.String(),
		MatchedCell:     result.MatchedCell.String(),
		RingDistance:    result.RingDistance,
		RegionPack:      result.RegionPack,
	})
}

func (s *Server) handleAllowedSpecies(c echo.Context) error {
	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid lat parameter")
	}
	lon, err := strconv.ParseFloat(c.QueryParam("lon"), 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid lon parameter")
	}

	strictnessParam := c.QueryParam("strictness")
	if strictnessParam == "" {
		strictnessParam = s.settings.EBirdFilter.Strictness
	}
	strictness, err := regionpack.ParseTier(strictnessParam)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	species, err := s.builder.AllowedSpeciesAt(c.Request().Context(), lat, lon, strictness)
	if err != nil {
		s.slogger.Error("allow-list lookup failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "allow-list lookup failed")
	}

	if species == nil {
		species = []string{}
	}
	return c.JSON(http.StatusOK, AllowedSpeciesResponse{
		Strictness: strictness.String(),
		Count:      len(species),
		Species:    species,
	})
}

func (s *Server) handleCleanupPreview(c echo.Context) error {
	return s.handleCleanup(c, false)
}

func (s *Server) handleCleanupExecute(c echo.Context) error {
	return s.handleCleanup(c, true)
}

func (s *Server) handleCleanup(c echo.Context, destructive bool) error {
	var req CleanupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Strictness == "" {
		req.Strictness = s.settings.EBirdFilter.Strictness
	}
	strictness, err := regionpack.ParseTier(req.Strictness)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	params := cleanup.Params{
		Strictness:  strictness,
		RegionPack:  s.settings.EBirdFilter.RegionPack,
		Resolution:  s.settings.EBirdFilter.Resolution,
		Limit:       req.Limit,
		DeleteAudio: req.DeleteAudio,
	}
	if req.RegionPack != "" {
		params.RegionPack = req.RegionPack
	}
	if req.Resolution != nil {
		params.Resolution = *req.Resolution
	}

	var stats cleanup.Stats
	if destructive {
		stats, err = s.operator.Execute(c.Request().Context(), params)
	} else {
		stats, err = s.operator.Preview(c.Request().Context(), params)
	}
	if err != nil {
		s.slogger.Error("cleanup run failed", "destructive", destructive, "run_id", stats.RunID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cleanup run failed")
	}

	if stats.SpeciesAffected == nil {
		stats.SpeciesAffected = []string{}
	}
	return c.JSON(http.StatusOK, CleanupResponse{
		Evaluated:         stats.Evaluated,
		Removed:           stats.Removed,
		AudioFilesDeleted: stats.AudioFilesDeleted,
		SpeciesAffected:   stats.SpeciesAffected,
		RunID:             stats.RunID,
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
