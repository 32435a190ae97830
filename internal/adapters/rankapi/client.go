// Package rankapi is an HTTP client for the rank registry. Client satisfies
// balance.RankLookup so a balancer can run next to the chat bot instead of
// inside the service.
package rankapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/okian/rankteam/internal/domain/model"
	"github.com/okian/rankteam/internal/domain/rank"
)

// maxErrorBody caps how much of a failed response is quoted in errors.
const maxErrorBody = 256

// Client talks to the rank registry endpoints.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *http.Client
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

type rankDTO struct {
	DiscordID string `json:"discord_id"`
	Tier      string `json:"tier"`
	Division  string `json:"division"`
}

type ranksResponse struct {
	Ranks []rankDTO `json:"ranks"`
}

// Registration is the outcome of Register.
type Registration struct {
	Rank     model.RankRecord
	Previous *model.RankRecord
	Message  string
}

type registerResponse struct {
	Message  string   `json:"message"`
	Rank     rankDTO  `json:"rank"`
	Previous *rankDTO `json:"previous,omitempty"`
}

// LookupRanks fetches the records of ids in one request. Identities the
// registry does not know are absent from the result. It never retries.
func (c *Client) LookupRanks(ctx context.Context, ids []string) (map[string]model.RankRecord, error) {
	ids = lo.Uniq(lo.Compact(ids))
	if len(ids) == 0 {
		return map[string]model.RankRecord{}, nil
	}

	q := url.Values{}
	q.Set("discordIds", strings.Join(ids, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rank?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var body ranksResponse
	if err := c.do(req, &body); err != nil {
		return nil, err
	}

	out := make(map[string]model.RankRecord, len(body.Ranks))
	for _, r := range body.Ranks {
		rec := r.record()
		out[rec.ID] = rec
	}
	return out, nil
}

// Register upserts the rank of rec.ID. Tier and division travel as query
// parameters, as the registration route expects.
func (c *Client) Register(ctx context.Context, rec model.RankRecord) (Registration, error) {
	q := url.Values{}
	q.Set("tier", string(rec.Tier))
	if rec.Division != rank.NoDivision {
		q.Set("division", string(rec.Division))
	}
	endpoint := fmt.Sprintf("%s/rank/%s?%s", c.baseURL, url.PathEscape(rec.ID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(nil))
	if err != nil {
		return Registration{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var body registerResponse
	if err := c.do(req, &body); err != nil {
		return Registration{}, err
	}

	out := Registration{Rank: body.Rank.record(), Message: body.Message}
	if body.Previous != nil {
		prev := body.Previous.record()
		out.Previous = &prev
	}
	return out, nil
}

// do sends req and decodes a 2xx JSON body into v.
func (c *Client) do(req *http.Request, v any) error {
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %w: %d %s", ErrUnavailable, ErrUnexpectedStatus,
			resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrUnavailable, err)
	}
	return nil
}

// record converts a wire rank. Unknown tiers are kept verbatim so scoring
// applies its unknown-tier floor; bad divisions collapse to none.
func (r rankDTO) record() model.RankRecord {
	t, err := rank.ParseTier(r.Tier)
	if err != nil {
		t = rank.Tier(strings.ToUpper(strings.TrimSpace(r.Tier)))
	}
	d, err := rank.ParseDivision(t, r.Division)
	if err != nil {
		d = rank.NoDivision
	}
	return model.RankRecord{ID: r.DiscordID, Tier: t, Division: d}
}
