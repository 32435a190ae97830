// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/okian/rankteam/internal/adapters/repository"
	"github.com/okian/rankteam/internal/domain/balance"
	"github.com/okian/rankteam/internal/domain/model"
	"github.com/okian/rankteam/internal/domain/rank"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

var validate = validator.New()

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RankDependencies
	TeamDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	rankHandler   *RankHandler
	teamHandler   *TeamHandler
	apiKey        string
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithAPIKey requires x-api-key on rank registration routes.
func WithAPIKey(key string) ServerOption {
	return func(s *Server) {
		s.apiKey = key
	}
}

// WithTokenSource replaces the generator of freshness tokens for /team
// requests that carry none.
func WithTokenSource(fn func() string) ServerOption {
	return func(s *Server) {
		if fn != nil {
			s.teamHandler.newToken = fn
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler: NewHealthHandler(statsProvider),
		statsHandler:  NewStatsHandler(statsProvider),
		rankHandler:   NewRankHandler(deps),
		teamHandler:   NewTeamHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	guard := func(h http.HandlerFunc) http.HandlerFunc { return APIKeyMiddleware(s.apiKey, h) }

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /rank", MetricsMiddleware(s.rankHandler.HandleGetRanks, "rank"))
	mux.HandleFunc("POST /rank", MetricsMiddleware(guard(s.rankHandler.HandlePostRankJSON), "rank"))
	mux.HandleFunc("GET /rank/{discordId}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank_id"))
	mux.HandleFunc("POST /rank/{discordId}", MetricsMiddleware(guard(s.rankHandler.HandlePostRank), "rank_id"))

	mux.HandleFunc("POST /team", MetricsMiddleware(s.teamHandler.HandlePostTeam, "team"))
}

type rankDTO struct {
	DiscordID string `json:"discord_id"`
	Tier      string `json:"tier"`
	Division  string `json:"division"`
}

func toRankDTO(rec model.RankRecord) rankDTO {
	return rankDTO{DiscordID: rec.ID, Tier: string(rec.Tier), Division: string(rec.Division)}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates errors from the service into status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, rank.ErrUnknownTier),
		errors.Is(err, rank.ErrUnknownDivision),
		errors.Is(err, repository.ErrInvalidRecord),
		errors.Is(err, balance.ErrTooManyParticipants):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, balance.ErrInsufficientParticipants):
		writeError(w, http.StatusUnprocessableEntity, "insufficient_participants", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, balance.ErrRankLookupFailed):
		writeError(w, http.StatusBadGateway, "rank_lookup_failed", err)
	case errors.Is(err, balance.ErrNoCombinations), errors.Is(err, balance.ErrSelectionFailed):
		writeError(w, http.StatusInternalServerError, "internal_invariant", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// decodeJSON reads a bounded JSON body into v and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	if err := validate.Struct(v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}
