// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/rankteam/internal/domain/model"
)

// RankDependencies defines the interface for rank operations.
type RankDependencies interface {
	RegisterRank(ctx context.Context, id, tier, division string) (model.Registration, error)
	Ranks(ctx context.Context, ids []string) ([]model.RankRecord, error)
	Rank(ctx context.Context, id string) (model.RankRecord, error)
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps RankDependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

// registerRequest mirrors the OpenAPI schema for POST /rank.
type registerRequest struct {
	DiscordID string `json:"discord_id" validate:"required,max=64"`
	Tier      string `json:"tier" validate:"required,max=16"`
	Division  string `json:"division" validate:"max=8"`
}

type registerResponse struct {
	Message  string   `json:"message"`
	Rank     rankDTO  `json:"rank"`
	Previous *rankDTO `json:"previous,omitempty"`
}

var errMissingIDs = errors.New("missing discordIds")

type ranksResponse struct {
	Ranks []rankDTO `json:"ranks"`
}

// HandlePostRank handles POST /rank/{discordId}?tier=GOLD&division=II requests.
func (h *RankHandler) HandlePostRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_rank"
	q := r.URL.Query()
	req := registerRequest{
		DiscordID: strings.TrimSpace(r.PathValue("discordId")),
		Tier:      q.Get("tier"),
		Division:  q.Get("division"),
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	h.register(w, r, req)
}

// HandlePostRankJSON handles POST /rank requests with a JSON body.
func (h *RankHandler) HandlePostRankJSON(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, "api.post_rank_json", &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	h.register(w, r, req)
}

func (h *RankHandler) register(w http.ResponseWriter, r *http.Request, req registerRequest) {
	reg, err := h.deps.RegisterRank(r.Context(), req.DiscordID, req.Tier, req.Division)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := registerResponse{
		Message: fmt.Sprintf("registered: %s", strings.TrimSpace(string(reg.Rank.Tier)+" "+string(reg.Rank.Division))),
		Rank:    toRankDTO(reg.Rank),
	}
	if reg.Previous != nil {
		prev := toRankDTO(*reg.Previous)
		resp.Previous = &prev
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGetRanks handles GET /rank?discordIds=a,b,c requests. Unknown
// identities are omitted from the list.
func (h *RankHandler) HandleGetRanks(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ranks"
	raw := r.URL.Query().Get("discordIds")
	if strings.TrimSpace(raw) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errMissingIDs))
		return
	}

	recs, err := h.deps.Ranks(r.Context(), strings.Split(raw, ","))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := ranksResponse{Ranks: make([]rankDTO, 0, len(recs))}
	for _, rec := range recs {
		out.Ranks = append(out.Ranks, toRankDTO(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetRank handles GET /rank/{discordId} requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("discordId"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	rec, err := h.deps.Rank(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRankDTO(rec))
}
