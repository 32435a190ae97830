package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/rankteam/internal/adapters/http/api"
	service "github.com/okian/rankteam/internal/app"
	"github.com/okian/rankteam/internal/domain/balance"
	"github.com/okian/rankteam/internal/domain/model"
	"github.com/okian/rankteam/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const testKey = "secret"

func newTestMux(svc *service.Service) *http.ServeMux {
	server := api.NewServer(svc, svc,
		api.WithAPIKey(testKey),
		api.WithTokenSource(func() string { return "fixed-token" }),
	)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target, body string, withKey bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if withKey {
		req.Header.Set("x-api-key", testKey)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func TestServer_Register(t *testing.T) {
	Convey("Given a server over a started service", t, func() {
		ctx := context.Background()
		svc := service.New()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		mux := newTestMux(svc)

		Convey("Then the health endpoint serves metrics", func() {
			w := do(mux, "GET", "/healthz", "", false)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then JSON clients get a liveness status", func() {
			req := httptest.NewRequest("GET", "/healthz", http.NoBody)
			req.Header.Set("Accept", "application/json")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["status"], ShouldEqual, "ok")
		})

		Convey("Then the stats endpoint reports the service", func() {
			w := do(mux, "GET", "/stats", "", false)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["started"], ShouldEqual, true)
		})

		Convey("Then unknown routes are not found", func() {
			w := do(mux, "GET", "/leaderboard", "", false)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestRankRoutes(t *testing.T) {
	Convey("Given a server over a started service", t, func() {
		ctx := context.Background()
		svc := service.New()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		mux := newTestMux(svc)

		Convey("When registering through the path route", func() {
			w := do(mux, "POST", "/rank/100?tier=gold&division=ii", "", true)

			Convey("Then the normalized rank is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["message"], ShouldEqual, "registered: GOLD II")
				So(body["rank"].(map[string]any)["tier"], ShouldEqual, "GOLD")
				So(body["previous"], ShouldBeNil)
			})

			Convey("And registering again reports the previous rank", func() {
				w := do(mux, "POST", "/rank/100?tier=MASTER&division=I", "", true)
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["rank"].(map[string]any)["division"], ShouldEqual, "")
				So(body["previous"].(map[string]any)["tier"], ShouldEqual, "GOLD")
			})

			Convey("And the rank can be read back", func() {
				w := do(mux, "GET", "/rank/100", "", false)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["discord_id"], ShouldEqual, "100")
			})

			Convey("And batch lookups omit unknown identities", func() {
				w := do(mux, "GET", "/rank?discordIds=100,999", "", false)
				So(w.Code, ShouldEqual, http.StatusOK)
				ranks := decode(w)["ranks"].([]any)
				So(len(ranks), ShouldEqual, 1)
			})
		})

		Convey("When registering through the JSON route", func() {
			w := do(mux, "POST", "/rank", `{"discord_id":"200","tier":"PLATINUM","division":"NONE"}`, true)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["rank"].(map[string]any)["division"], ShouldEqual, "")
		})

		Convey("When the API key is missing", func() {
			w := do(mux, "POST", "/rank/100?tier=GOLD", "", false)
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
			So(decode(w)["code"], ShouldEqual, "unauthorized")
		})

		Convey("When the input is invalid", func() {
			cases := []struct {
				method, target, body string
			}{
				{"POST", "/rank/100?tier=WOOD", ""},
				{"POST", "/rank/100?tier=GOLD&division=V", ""},
				{"POST", "/rank/100", ""},
				{"POST", "/rank", `{"discord_id":"1","tier":"GOLD","extra":true}`},
				{"POST", "/rank", `{"tier":"GOLD"}`},
				{"GET", "/rank", ""},
			}
			for _, c := range cases {
				w := do(mux, c.method, c.target, c.body, true)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["code"], ShouldEqual, "bad_request")
			}
		})

		Convey("When reading an unknown identity", func() {
			w := do(mux, "GET", "/rank/999", "", false)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestTeamRoute(t *testing.T) {
	Convey("Given four registered players", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithMaxParticipants(6))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		mux := newTestMux(svc)

		for id, tier := range map[string]string{"101": "GOLD", "102": "GOLD", "103": "SILVER", "104": "SILVER"} {
			w := do(mux, "POST", fmt.Sprintf("/rank/%s?tier=%s&division=I", id, tier), "", true)
			So(w.Code, ShouldEqual, http.StatusOK)
		}
		players := `[{"id":"101","name":"Ann"},{"id":"102","name":"Bo"},{"id":"103","name":"Cy"},{"id":"104","name":"Di"}`

		Convey("When requesting a split without a token", func() {
			w := do(mux, "POST", "/team", `{"participants":`+players+`]}`, false)

			Convey("Then an even split is returned with a generated token", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["power_difference"], ShouldEqual, 0.0)
				So(body["within_threshold"], ShouldEqual, true)
				So(body["candidates"], ShouldEqual, 4.0)
				So(body["combinations"], ShouldEqual, 6.0)
				So(body["token"], ShouldEqual, "fixed-token")
				So(body["excluded"], ShouldBeEmpty)

				a := body["team_a"].(map[string]any)
				b := body["team_b"].(map[string]any)
				So(len(a["members"].([]any)), ShouldEqual, 2)
				So(len(b["members"].([]any)), ShouldEqual, 2)
				So(a["total_skill"], ShouldEqual, b["total_skill"])
			})
		})

		Convey("When excluding by mention text", func() {
			body := `{"participants":` + players + `,{"id":"105","name":"Ed"}],"exclude_text":"<@105> and <@!999>","token":"t"}`
			w := do(mux, "POST", "/team", body, false)

			Convey("Then the mentioned participant is left out", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				got := decode(w)
				So(got["excluded"], ShouldResemble, []any{"105"})
				So(got["token"], ShouldEqual, "t")
			})
		})

		Convey("When too few remain", func() {
			body := `{"participants":` + players + `],"exclude":["101","102","103"]}`
			w := do(mux, "POST", "/team", body, false)
			So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			So(decode(w)["code"], ShouldEqual, "insufficient_participants")
		})

		Convey("When the group exceeds the limit", func() {
			var ps []string
			for i := 0; i < 7; i++ {
				ps = append(ps, fmt.Sprintf(`{"id":"%d"}`, 200+i))
			}
			w := do(mux, "POST", "/team", `{"participants":[`+strings.Join(ps, ",")+`]}`, false)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the body is malformed", func() {
			for _, body := range []string{`{`, `{"participants":[{"name":"x"}]}`, `{}`} {
				w := do(mux, "POST", "/team", body, false)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})
	})
}

type stubDeps struct {
	err error
}

func (s stubDeps) RegisterRank(context.Context, string, string, string) (model.Registration, error) {
	return model.Registration{}, s.err
}

func (s stubDeps) Ranks(context.Context, []string) ([]model.RankRecord, error) {
	return nil, s.err
}

func (s stubDeps) Rank(context.Context, string) (model.RankRecord, error) {
	return model.RankRecord{}, s.err
}

func (s stubDeps) Balance(context.Context, balance.Request) (model.BalancingResult, error) {
	return model.BalancingResult{}, s.err
}

func (s stubDeps) GetStats() map[string]interface{} { return map[string]interface{}{} }

func TestTeamRouteFailures(t *testing.T) {
	Convey("Given dependencies that fail", t, func() {
		body := `{"participants":[{"id":"1"},{"id":"2"}]}`
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{fmt.Errorf("%w: down", balance.ErrRankLookupFailed), http.StatusBadGateway, "rank_lookup_failed"},
			{fmt.Errorf("%w: %w", balance.ErrSelectionFailed, balance.ErrNoCandidates), http.StatusInternalServerError, "internal_invariant"},
			{balance.ErrNoCombinations, http.StatusInternalServerError, "internal_invariant"},
			{errors.New("surprise"), http.StatusInternalServerError, "internal_error"},
		}

		for _, c := range cases {
			deps := stubDeps{err: c.err}
			mux := http.NewServeMux()
			api.NewServer(deps, deps).Register(context.Background(), mux)

			w := do(mux, "POST", "/team", body, false)
			So(w.Code, ShouldEqual, c.status)
			So(decode(w)["code"], ShouldEqual, c.code)
		}
	})

	Convey("Given no API key configured", t, func() {
		deps := stubDeps{}
		mux := http.NewServeMux()
		api.NewServer(deps, deps).Register(context.Background(), mux)

		Convey("Then registration is open", func() {
			w := do(mux, "POST", "/rank/1?tier=GOLD", "", false)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then a service that is not started fails the JSON probe", func() {
			req := httptest.NewRequest("GET", "/healthz", http.NoBody)
			req.Header.Set("Accept", "application/json")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(decode(w)["status"], ShouldEqual, "stopped")
		})
	})
}
