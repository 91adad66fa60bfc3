package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/okian/dxapi/internal/adapters/http/api"
	"github.com/okian/dxapi/internal/adapters/repository"
	"github.com/okian/dxapi/internal/config"
	"github.com/okian/dxapi/internal/domain/nonce"
	"github.com/smartystreets/goconvey/convey"
)

type cliHarness struct {
	stdout bytes.Buffer
	stderr bytes.Buffer
	cfg    *config.Config
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	store := repository.NewShardedStore(context.Background())
	t.Cleanup(func() { _ = store.Close() })
	srv := httptest.NewServer(api.NewServer(store, nonce.New(), api.WithApp("bwa", "1.0.0")).Router())
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	host, port, _ := net.SplitHostPort(u.Host)
	cfg := config.New(context.Background())
	cfg.APIServerProtocol = "http"
	cfg.APIServerHost = host
	cfg.APIServerPort, _ = strconv.Atoi(port)
	cfg.LogLevel = "error"
	cfg.RetryBackoffMS = 1
	return &cliHarness{cfg: cfg}
}

func (h *cliHarness) run(stdin string, args ...string) int {
	h.stdout.Reset()
	h.stderr.Reset()
	c := newCLI(strings.NewReader(stdin), &h.stdout, &h.stderr)
	c.loadConfig = func(context.Context) (*config.Config, error) { return h.cfg, nil }
	return run(context.Background(), c, args)
}

func TestCallCommand(t *testing.T) {
	convey.Convey("Given the CLI against a stub server", t, func() {
		h := newCLIHarness(t)

		convey.Convey("When a global route is called", func() {
			code := h.run("", "call", "system-whoami")

			convey.Convey("Then the response is printed as JSON", func() {
				convey.So(code, convey.ShouldEqual, exitOK)
				var out map[string]any
				convey.So(json.Unmarshal(h.stdout.Bytes(), &out), convey.ShouldBeNil)
				convey.So(out["id"], convey.ShouldEqual, "user-stub")
			})
		})

		convey.Convey("When input comes from stdin", func() {
			code := h.run(`{"project":"project-1","name":"from-stdin"}`, "call", "record-new", "--input", "-")
			convey.So(code, convey.ShouldEqual, exitOK)
			var created map[string]any
			convey.So(json.Unmarshal(h.stdout.Bytes(), &created), convey.ShouldBeNil)

			code = h.run("", "call", "record-describe", created["id"].(string))
			convey.So(code, convey.ShouldEqual, exitOK)
			convey.So(h.stdout.String(), convey.ShouldContainSubstring, `"from-stdin"`)
		})

		convey.Convey("When an app is run with an alias", func() {
			code := h.run("", "call", "app-run", "bwa", "--alias", "1.0.0", "--input", `{"input":{}}`)
			convey.So(code, convey.ShouldEqual, exitOK)
			convey.So(h.stdout.String(), convey.ShouldContainSubstring, `"job-`)
		})

		convey.Convey("When the server answers 404", func() {
			code := h.run("", "call", "record-describe", "record-0001")
			convey.So(code, convey.ShouldEqual, exitAPIError)
			convey.So(h.stderr.String(), convey.ShouldContainSubstring, "API error 404")
			convey.So(h.stderr.String(), convey.ShouldContainSubstring, "ResourceNotFound")
		})

		convey.Convey("When the object reference is missing", func() {
			code := h.run("", "call", "record-describe")
			convey.So(code, convey.ShouldEqual, exitUsage)
		})

		convey.Convey("When the input is not JSON", func() {
			code := h.run("", "call", "system-whoami", "--input", "{nope")
			convey.So(code, convey.ShouldEqual, exitUsage)
		})

		convey.Convey("When a header is malformed", func() {
			code := h.run("", "call", "system-whoami", "--header", "no-colon")
			convey.So(code, convey.ShouldEqual, exitUsage)
		})

		convey.Convey("When headers and timeout are given", func() {
			code := h.run("", "call", "system-whoami", "--header", "X-Trace: abc", "--timeout", "5s", "--always-retry")
			convey.So(code, convey.ShouldEqual, exitOK)
		})
	})
}

func TestBatchCommand(t *testing.T) {
	convey.Convey("Given the CLI against a stub server", t, func() {
		h := newCLIHarness(t)

		convey.Convey("When a batch mixes good and bad calls", func() {
			input := strings.Join([]string{
				`{"route":"system-whoami"}`,
				``,
				`{"route":"record-describe","ref":"record-0001"}`,
				`{"route":"record-describe"}`,
				`{"route":"app-run","ref":"bwa","input":{"input":{}}}`,
			}, "\n")
			code := h.run(input, "batch", "--workers", "2")

			convey.Convey("Then one line per call comes back in order", func() {
				convey.So(code, convey.ShouldEqual, exitOK)
				lines := strings.Split(strings.TrimSpace(h.stdout.String()), "\n")
				convey.So(lines, convey.ShouldHaveLength, 4)

				var results []batchLine
				for _, l := range lines {
					var bl batchLine
					convey.So(json.Unmarshal([]byte(l), &bl), convey.ShouldBeNil)
					results = append(results, bl)
				}
				for i, r := range results {
					convey.So(r.Index, convey.ShouldEqual, i)
				}
				convey.So(results[0].Error, convey.ShouldBeNil)
				convey.So(results[1].Error.Kind, convey.ShouldEqual, "api")
				convey.So(results[1].Error.StatusCode, convey.ShouldEqual, 404)
				convey.So(results[2].Error.Kind, convey.ShouldEqual, "usage")
				convey.So(results[3].Error, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a line is not JSON", func() {
			code := h.run("{\"route\":\"system-whoami\"}\nnot json\n", "batch")
			convey.So(code, convey.ShouldEqual, exitUsage)
			convey.So(h.stderr.String(), convey.ShouldContainSubstring, "line 2")
		})
	})
}

func TestRoutesCommand(t *testing.T) {
	convey.Convey("Given the routes command", t, func() {
		h := newCLIHarness(t)
		code := h.run("", "routes")

		convey.Convey("Then every route is listed with its template and scope", func() {
			convey.So(code, convey.ShouldEqual, exitOK)
			out := h.stdout.String()
			convey.So(out, convey.ShouldContainSubstring, "record-describe")
			convey.So(out, convey.ShouldContainSubstring, "/{id}/describe")
			convey.So(out, convey.ShouldContainSubstring, "app-run")
		})
	})
}
