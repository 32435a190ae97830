// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/okian/rankteam/internal/domain/balance"
	"github.com/okian/rankteam/internal/domain/model"
)

// TeamDependencies defines the interface for team balancing.
type TeamDependencies interface {
	Balance(ctx context.Context, req balance.Request) (model.BalancingResult, error)
}

// TeamHandler handles team split requests.
type TeamHandler struct {
	deps     TeamDependencies
	newToken func() string
}

// NewTeamHandler creates a new team handler.
func NewTeamHandler(deps TeamDependencies) *TeamHandler {
	return &TeamHandler{deps: deps, newToken: uuid.NewString}
}

type participantDTO struct {
	ID   string `json:"id" validate:"required,max=64"`
	Name string `json:"name" validate:"max=100"`
}

// teamRequest mirrors the OpenAPI schema for POST /team.
type teamRequest struct {
	Participants []participantDTO `json:"participants" validate:"required,max=64,dive"`
	Exclude      []string         `json:"exclude" validate:"max=64,dive,required,max=64"`
	ExcludeText  string           `json:"exclude_text" validate:"max=2000"`
	Token        string           `json:"token" validate:"max=128"`
}

type memberDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Tier     string `json:"tier"`
	Division string `json:"division"`
	Skill    int    `json:"skill"`
}

type teamDTO struct {
	Members    []memberDTO `json:"members"`
	TotalSkill int         `json:"total_skill"`
}

type teamResponse struct {
	TeamA           teamDTO  `json:"team_a"`
	TeamB           teamDTO  `json:"team_b"`
	PowerDifference int      `json:"power_difference"`
	WithinThreshold bool     `json:"within_threshold"`
	Candidates      int      `json:"candidates"`
	Index           int      `json:"index"`
	Combinations    int      `json:"combinations"`
	Excluded        []string `json:"excluded"`
	Token           string   `json:"token"`
}

// HandlePostTeam handles POST /team requests.
func (h *TeamHandler) HandlePostTeam(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := decodeJSON(w, r, "api.post_team", &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	token := req.Token
	if token == "" {
		token = h.newToken()
	}

	res, err := h.deps.Balance(r.Context(), balance.Request{
		Participants: lo.Map(req.Participants, func(p participantDTO, _ int) model.Participant {
			return model.Participant{ID: p.ID, Name: p.Name}
		}),
		Exclusions:     lo.Uniq(append(req.Exclude, ParseMentions(req.ExcludeText)...)),
		FreshnessToken: token,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	excluded := res.Excluded
	if excluded == nil {
		excluded = []string{}
	}
	writeJSON(w, http.StatusOK, teamResponse{
		TeamA:           toTeamDTO(res.Combination.A),
		TeamB:           toTeamDTO(res.Combination.B),
		PowerDifference: res.PowerDifference,
		WithinThreshold: res.WithinThreshold,
		Candidates:      res.Candidates,
		Index:           res.Index,
		Combinations:    res.Combinations,
		Excluded:        excluded,
		Token:           token,
	})
}

func toTeamDTO(t model.Team) teamDTO {
	return teamDTO{
		Members: lo.Map(t.Members, func(m model.ScoredParticipant, _ int) memberDTO {
			return memberDTO{
				ID:       m.ID,
				Name:     m.Name,
				Tier:     string(m.Tier),
				Division: string(m.Division),
				Skill:    m.Skill,
			}
		}),
		TotalSkill: t.TotalSkill(),
	}
}
