package service_test

import (
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/okian/dxapi/internal/adapters/http/api"
	"github.com/okian/dxapi/internal/adapters/mq/queue"
	"github.com/okian/dxapi/internal/adapters/repository"
	service "github.com/okian/dxapi/internal/app"
	"github.com/okian/dxapi/internal/config"
	"github.com/okian/dxapi/internal/domain/nonce"
	"github.com/okian/dxapi/internal/domain/route"
	"github.com/okian/dxapi/pkg/dxapi"
	"github.com/okian/dxapi/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// stubConfig returns a config pointing at a fresh stub server.
func stubConfig(t *testing.T, token string) *config.Config {
	t.Helper()
	store := repository.NewShardedStore(context.Background())
	t.Cleanup(func() { _ = store.Close() })
	stub := api.NewServer(store, nonce.New(), api.WithAuthToken(token), api.WithApp("bwa", "1.0.0"))
	srv := httptest.NewServer(stub.Router())
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	host, port, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.New(context.Background())
	cfg.APIServerProtocol = "http"
	cfg.APIServerHost = host
	cfg.APIServerPort, _ = strconv.Atoi(port)
	cfg.SecurityContextJSON = `{"auth_token_type":"Bearer","auth_token":"` + token + `"}`
	cfg.ProjectContextID = "project-ctx"
	cfg.RetryBackoffMS = 1
	return cfg
}

func TestServiceAgainstStub(t *testing.T) {
	convey.Convey("Given a started service pointed at the stub server", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithConfig(stubConfig(t, "tok")), service.WithLogger(logger.Nop()))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		convey.Convey("When a record is created without a project", func() {
			resp, err := svc.Call(ctx, route.RecordNew, "", "", map[string]any{"name": "r"})
			convey.So(err, convey.ShouldBeNil)
			id := resp.(map[string]any)["id"].(string)

			convey.Convey("Then the project context is filled in", func() {
				desc, err := svc.Call(ctx, route.RecordDescribe, id, "", nil)
				convey.So(err, convey.ShouldBeNil)
				convey.So(desc.(map[string]any)["project"], convey.ShouldEqual, "project-ctx")
			})
		})

		convey.Convey("When an explicit project is given", func() {
			resp, err := svc.Call(ctx, route.RecordNew, "", "", map[string]any{"project": "project-x"})
			convey.So(err, convey.ShouldBeNil)
			desc, err := svc.Client().RecordDescribe(ctx, resp.(map[string]any)["id"].(string), nil)
			convey.So(err, convey.ShouldBeNil)
			convey.So(desc.(map[string]any)["project"], convey.ShouldEqual, "project-x")
		})

		convey.Convey("When a missing object is described", func() {
			_, err := svc.Call(ctx, route.RecordDescribe, "record-0001", "", nil)

			convey.Convey("Then an APIError with the stub payload comes back", func() {
				var apiErr *dxapi.APIError
				convey.So(errors.As(err, &apiErr), convey.ShouldBeTrue)
				convey.So(apiErr.StatusCode, convey.ShouldEqual, 404)
				convey.So(apiErr.Type, convey.ShouldEqual, "ResourceNotFound")
				convey.So(dxapi.IsNotFound(err), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When an app is run by name", func() {
			resp, err := svc.Client().AppRun(ctx, "bwa", "", map[string]any{"input": map[string]any{}})
			convey.So(err, convey.ShouldBeNil)
			convey.So(resp.(map[string]any)["id"], convey.ShouldStartWith, "job-")
		})

		convey.Convey("When an unknown alias is run", func() {
			_, err := svc.Client().AppRun(ctx, "bwa", "nope", nil)
			convey.So(dxapi.IsNotFound(err), convey.ShouldBeTrue)
		})

		convey.Convey("When a batch runs", func() {
			jobs := []queue.Job{
				{Route: route.SystemWhoami},
				{Route: route.RecordDescribe, Ref: "record-0001"},
				{Route: route.RecordNew, Input: map[string]any{"name": "batch"}},
				{Route: route.RecordDescribe},
			}
			results, err := svc.RunBatch(ctx, jobs)
			convey.So(err, convey.ShouldBeNil)
			convey.So(results, convey.ShouldHaveLength, len(jobs))

			convey.Convey("Then results keep input order with per-item errors", func() {
				for i, res := range results {
					convey.So(res.Index, convey.ShouldEqual, i)
				}
				convey.So(results[0].Err, convey.ShouldBeNil)
				convey.So(results[0].Response.(map[string]any)["id"], convey.ShouldEqual, "user-stub")
				convey.So(errors.Is(results[1].Err, dxapi.ErrAPI), convey.ShouldBeTrue)
				convey.So(results[2].Err, convey.ShouldBeNil)
				convey.So(errors.Is(results[3].Err, dxapi.ErrUsage), convey.ShouldBeTrue)
			})
		})

		convey.Convey("GetStats reports the wiring", func() {
			stats := svc.GetStats()
			convey.So(stats["started"], convey.ShouldBeTrue)
			convey.So(stats["routes"], convey.ShouldBeGreaterThan, 0)
		})
	})
}

func TestServiceAuth(t *testing.T) {
	convey.Convey("Given a service with the wrong token", t, func() {
		ctx := context.Background()
		cfg := stubConfig(t, "right")
		cfg.SecurityContextJSON = `{"auth_token_type":"Bearer","auth_token":"wrong"}`
		svc := service.New(service.WithConfig(cfg), service.WithLogger(logger.Nop()))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		convey.Convey("Then calls fail with 401", func() {
			_, err := svc.Call(ctx, route.SystemWhoami, "", "", nil)
			var apiErr *dxapi.APIError
			convey.So(errors.As(err, &apiErr), convey.ShouldBeTrue)
			convey.So(apiErr.StatusCode, convey.ShouldEqual, 401)
			convey.So(apiErr.Type, convey.ShouldEqual, "InvalidAuthentication")
		})
	})
}

func TestServiceLifecycle(t *testing.T) {
	convey.Convey("Given a service that is not started", t, func() {
		ctx := context.Background()
		calls := 0
		fake := dxapi.TransportFunc(func(_ context.Context, req *dxapi.Request) (*dxapi.Response, error) {
			calls++
			return &dxapi.Response{StatusCode: 200, Body: req.Body}, nil
		})
		svc := service.New(
			service.WithTransport(fake),
			service.WithBatchWorkers(2),
			service.WithBatchQueueSize(4),
			service.WithLogger(logger.Nop()),
		)

		convey.Convey("Then Call and RunBatch return ErrNotStarted", func() {
			_, err := svc.Call(ctx, route.SystemWhoami, "", "", nil)
			convey.So(errors.Is(err, service.ErrNotStarted), convey.ShouldBeTrue)
			_, err = svc.RunBatch(ctx, nil)
			convey.So(errors.Is(err, service.ErrNotStarted), convey.ShouldBeTrue)
			convey.So(svc.Client(), convey.ShouldBeNil)
		})

		convey.Convey("When started with an injected transport", func() {
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)

			convey.Convey("Then calls go through it", func() {
				resp, err := svc.Call(ctx, route.SystemWhoami, "", "", map[string]any{"echo": true})
				convey.So(err, convey.ShouldBeNil)
				convey.So(resp, convey.ShouldResemble, map[string]any{"echo": true})
				convey.So(calls, convey.ShouldEqual, 1)
			})

			convey.Convey("And stats carry the batch settings", func() {
				stats := svc.GetStats()
				convey.So(stats["batchWorkers"], convey.ShouldEqual, 2)
				convey.So(stats["batchQueueSize"], convey.ShouldEqual, 4)
			})

			convey.Convey("And Stop makes it unusable until restarted", func() {
				svc.Stop()
				_, err := svc.Call(ctx, route.SystemWhoami, "", "", nil)
				convey.So(errors.Is(err, service.ErrNotStarted), convey.ShouldBeTrue)
				convey.So(svc.Start(ctx), convey.ShouldBeNil)
				_, err = svc.Call(ctx, route.SystemWhoami, "", "", nil)
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}
