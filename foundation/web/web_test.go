package web_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/minichain/foundation/web"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type request struct {
	Name string `json:"name"`
}

func (r request) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func Test_App(t *testing.T) {
	shutdown := make(chan os.Signal, 1)

	var order []string
	mw := func(name string) web.Middleware {
		return func(handler web.Handler) web.Handler {
			return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				order = append(order, name)
				return handler(ctx, w, r)
			}
		}
	}

	app := web.NewApp(shutdown, mw("app"))

	app.Handle(http.MethodGet, "v1", "/hello/:name", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		v, err := web.GetValues(ctx)
		if err != nil || v.TraceID == "" {
			return web.NewShutdownError("web value missing from context")
		}

		resp := struct {
			Name string `json:"name"`
		}{
			Name: web.Param(r, "name"),
		}

		return web.Respond(ctx, w, resp, http.StatusOK)
	}, mw("route"))

	app.Handle(http.MethodPost, "v1", "/decode", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var req request
		if err := web.Decode(r, &req); err != nil {
			return web.Respond(ctx, w, err.Error(), http.StatusBadRequest)
		}
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	})

	app.Handle(http.MethodGet, "v1", "/shutdown", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.NewShutdownError("integrity issue")
	})

	t.Log("Given the need to route requests through the web framework.")
	{
		t.Logf("\tTest 0:\tWhen calling a route with a parameter.")
		{
			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/hello/alice", nil))

			if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"name":"alice"`) {
				t.Fatalf("\t%s\tTest 0:\tShould get back the parameter, got %d %s.", failed, w.Code, w.Body.String())
			}
			t.Logf("\t%s\tTest 0:\tShould get back the parameter.", success)

			if len(order) != 2 || order[0] != "app" || order[1] != "route" {
				t.Fatalf("\t%s\tTest 0:\tShould run app middleware before route middleware, got %v.", failed, order)
			}
			t.Logf("\t%s\tTest 0:\tShould run app middleware before route middleware.", success)
		}

		t.Logf("\tTest 1:\tWhen decoding request bodies.")
		{
			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/decode", strings.NewReader(`{"name":"alice"}`)))
			if w.Code != http.StatusNoContent {
				t.Fatalf("\t%s\tTest 1:\tShould decode a valid body, got %d.", failed, w.Code)
			}
			t.Logf("\t%s\tTest 1:\tShould decode a valid body.", success)

			w = httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/decode", strings.NewReader(`{}`)))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest 1:\tShould run the model validation, got %d.", failed, w.Code)
			}
			t.Logf("\t%s\tTest 1:\tShould run the model validation.", success)

			w = httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/decode", strings.NewReader(`{"name":"alice","extra":1}`)))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest 1:\tShould reject unknown fields, got %d.", failed, w.Code)
			}
			t.Logf("\t%s\tTest 1:\tShould reject unknown fields.", success)
		}

		t.Logf("\tTest 2:\tWhen a handler reports an integrity issue.")
		{
			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/shutdown", nil))

			select {
			case <-shutdown:
				t.Logf("\t%s\tTest 2:\tShould signal a shutdown.", success)
			default:
				t.Fatalf("\t%s\tTest 2:\tShould signal a shutdown.", failed)
			}
		}
	}
}
