package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"

	app "github.com/okian/rankteam/internal/app"
	"github.com/okian/rankteam/internal/config"
	"github.com/okian/rankteam/internal/domain/balance"
	"github.com/okian/rankteam/pkg/logger"
	"github.com/okian/rankteam/pkg/metrics"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("RANKTEAM_ADDR", ":8080")
			_ = os.Setenv("RANKTEAM_MAX_POWER_DIFFERENCE", "4")
			_ = os.Setenv("RANKTEAM_SELECTION_MODE", "uniform")
			defer func() {
				_ = os.Unsetenv("RANKTEAM_ADDR")
				_ = os.Unsetenv("RANKTEAM_MAX_POWER_DIFFERENCE")
				_ = os.Unsetenv("RANKTEAM_SELECTION_MODE")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxPowerDifference, convey.ShouldEqual, 4)
				convey.So(cfg.SelectionMode, convey.ShouldEqual, "uniform")
			})
		})

		convey.Convey("When testing service creation", func() {
			convey.Convey("Then service should be creatable with default options", func() {
				svc := app.New()
				convey.So(svc, convey.ShouldNotBeNil)
			})

			convey.Convey("And service should be creatable with configured options", func() {
				cfg := config.New()
				svc := app.New(
					app.WithScorer(cfg.Scorer()),
					app.WithMaxPowerDifference(cfg.MaxPowerDifference),
					app.WithPolicy(balance.PolicyUnfiltered),
					app.WithSelectionMode(balance.ModeUniform),
					app.WithMaxParticipants(cfg.MaxParticipants),
				)
				convey.So(svc, convey.ShouldNotBeNil)
				stats := svc.GetStats()
				convey.So(stats["candidatePolicy"], convey.ShouldEqual, "unfiltered")
				convey.So(stats["selectionMode"], convey.ShouldEqual, "uniform")
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then metrics manager should be creatable", func() {
				manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
				convey.So(manager, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When the system metrics updater runs until its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() {
				startSystemMetricsUpdater(ctx)
			}, convey.ShouldNotPanic)
		})

		convey.Convey("When the service metrics updater runs until its context ends", func() {
			svc := app.New()
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() {
				startServiceMetricsUpdater(ctx, svc)
			}, convey.ShouldNotPanic)
		})

		convey.Convey("When system metrics are updated directly", func() {
			convey.So(func() {
				updateSystemMetrics()
			}, convey.ShouldNotPanic)
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given the wired application", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg := config.New()
		cfg.APIKey = "k"

		svc, err := newService(ctx, cfg, logger.Get())
		convey.So(err, convey.ShouldBeNil)
		defer svc.Stop()
		mux := newMux(ctx, cfg, svc)

		convey.Convey("Then the docs and API routes are both served", func() {
			for _, path := range []string{"/api-docs", "/openapi.yaml", "/healthz", "/stats"} {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then registration is guarded by the configured key", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/rank/1?tier=GOLD", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusUnauthorized)

			req := httptest.NewRequest(http.MethodPost, "/rank/1?tier=GOLD", http.NoBody)
			req.Header.Set("x-api-key", "k")
			w = httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(svc.GetStats()["registeredRanks"], convey.ShouldEqual, 1)
		})
	})

	convey.Convey("Given a context that is already canceled", t, func() {
		_ = os.Setenv("RANKTEAM_ADDR", "127.0.0.1:0")
		defer func() { _ = os.Unsetenv("RANKTEAM_ADDR") }()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		convey.Convey("Then run shuts down cleanly", func() {
			convey.So(run(ctx), convey.ShouldBeNil)
			convey.So(logger.Init(), convey.ShouldBeNil)
		})
	})
}

func TestMetricsConfiguration(t *testing.T) {
	convey.Convey("Given a config naming a deployment", t, func() {
		cfg := config.New()
		cfg.MetricsDeployment = "eu-west"
		cfg.MetricsLatencyBuckets = []float64{1, 10, 100}

		metrics.Configure(metricsOptions(cfg)...)
		defer metrics.Configure()

		convey.Convey("Then served metrics carry the deployment label", func() {
			metrics.RecordBalance("ok", 3)
			families, err := metrics.GetRegistry().Gather()
			convey.So(err, convey.ShouldBeNil)

			var found bool
			for _, f := range families {
				if f.GetName() != "rankteam_balancer_balance_latency_milliseconds" {
					continue
				}
				found = true
				m := f.GetMetric()[0]
				convey.So(m.GetLabel()[0].GetName(), convey.ShouldEqual, "deployment")
				convey.So(m.GetLabel()[0].GetValue(), convey.ShouldEqual, "eu-west")
				convey.So(len(m.GetHistogram().GetBucket()), convey.ShouldEqual, 3)
			}
			convey.So(found, convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given the default config", t, func() {
		convey.So(len(metricsOptions(config.New())), convey.ShouldEqual, 3)
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given invalid configuration", t, func() {
		convey.Convey("When the policy is unknown", func() {
			cfg := config.New()
			cfg.CandidatePolicy = "best"
			_, err := newService(context.Background(), cfg, logger.Get())
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When run cannot load it", func() {
			_ = os.Setenv("RANKTEAM_MAX_PARTICIPANTS", "1")
			defer func() { _ = os.Unsetenv("RANKTEAM_MAX_PARTICIPANTS") }()
			convey.So(run(context.Background()), convey.ShouldNotBeNil)
		})

		convey.Convey("When the address is empty", func() {
			_ = os.Setenv("RANKTEAM_ADDR", "")
			defer func() { _ = os.Unsetenv("RANKTEAM_ADDR") }()

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the selection mode is unknown", func() {
			_ = os.Setenv("RANKTEAM_SELECTION_MODE", "random")
			defer func() { _ = os.Unsetenv("RANKTEAM_SELECTION_MODE") }()

			convey.Convey("Then configuration loading should fail", func() {
				_, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMainApplicationResourceCleanup(t *testing.T) {
	convey.Convey("Given repeated service lifecycles", t, func() {
		for i := 0; i < 3; i++ {
			svc := app.New()
			convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
			convey.So(svc.GetStats()["started"], convey.ShouldBeTrue)
			svc.Stop()
			convey.So(svc.GetStats()["started"], convey.ShouldBeFalse)
		}
	})
}
