package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/checklists/internal/shared"
)

type routesHandler struct{}

func (routesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	io.WriteString(w, "group:"+r.PathValue("id"))
}

func (routesHandler) Routes() []string {
	return []string{"GET /group/{id}", "DELETE /group/{id}"}
}

func TestBasicRouter(t *testing.T) {
	t.Run("method patterns", func(t *testing.T) {
		r := NewBasicRouter()
		r.HandleFunc("get", "/items/{id}", func(w http.ResponseWriter, req *http.Request) {
			io.WriteString(w, "item:"+req.PathValue("id"))
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))
		if rec.Body.String() != "item:42" {
			t.Errorf("unexpected body %q", rec.Body.String())
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/items/42", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("handler routes", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handler(routesHandler{})

		for _, method := range []string{http.MethodGet, http.MethodDelete} {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(method, "/group/7", nil))
			if rec.Body.String() != "group:7" {
				t.Errorf("%s: unexpected body %q", method, rec.Body.String())
			}
		}
	})

	t.Run("middleware order", func(t *testing.T) {
		var order []string
		tag := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(tag("first"), tag("second"))
		r.HandleFunc(http.MethodGet, "/", func(w http.ResponseWriter, _ *http.Request) {
			order = append(order, "handler")
		})

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})
}

func TestRequestLogger(t *testing.T) {
	var buf strings.Builder
	logger := shared.NewLogger(&buf)

	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	out := buf.String()
	if !strings.Contains(out, "/boom") || !strings.Contains(out, "500") {
		t.Errorf("expected request line with status, got %s", out)
	}
}

func TestRecoverer(t *testing.T) {
	var buf strings.Builder
	logger := shared.NewLogger(&buf)

	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("kaboom") })

	t.Run("default fallback", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Recoverer(logger, nil)(panicky).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if !strings.Contains(buf.String(), "kaboom") {
			t.Errorf("expected panic to be logged, got %s", buf.String())
		}
	})

	t.Run("custom fallback", func(t *testing.T) {
		rec := httptest.NewRecorder()
		fallback := func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}
		Recoverer(logger, fallback)(panicky).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusTeapot {
			t.Errorf("expected fallback status, got %d", rec.Code)
		}
	})
}

func TestMaxBodyBytes(t *testing.T) {
	h := MaxBodyBytes(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("abc")))
	if rec.Code != http.StatusOK {
		t.Errorf("small body: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("abcdefgh")))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("large body: expected 413, got %d", rec.Code)
	}
}

func TestIPRateLimiter(t *testing.T) {
	t.Run("burst then reject", func(t *testing.T) {
		l := NewIPRateLimiter(1, 2)
		now := time.Now()
		l.now = func() time.Time { return now }

		if !l.Allow("1.1.1.1") || !l.Allow("1.1.1.1") {
			t.Fatal("burst should be allowed")
		}
		if l.Allow("1.1.1.1") {
			t.Error("third request should be limited")
		}
		if !l.Allow("2.2.2.2") {
			t.Error("other IPs have their own bucket")
		}
	})

	t.Run("idle buckets dropped", func(t *testing.T) {
		l := NewIPRateLimiter(1, 1)
		now := time.Now()
		l.now = func() time.Time { return now }

		l.Allow("1.1.1.1")
		now = now.Add(time.Hour)
		l.Allow("2.2.2.2")

		if _, ok := l.visitors["1.1.1.1"]; ok {
			t.Error("idle visitor should have been dropped")
		}
	})

	t.Run("disabled", func(t *testing.T) {
		l := NewIPRateLimiter(0, 0)
		for i := 0; i < 100; i++ {
			if !l.Allow("1.1.1.1") {
				t.Fatal("disabled limiter should allow everything")
			}
		}
	})

	t.Run("middleware", func(t *testing.T) {
		l := NewIPRateLimiter(1, 1)
		h := l.Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("first request: expected 200, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusTooManyRequests {
			t.Errorf("second request: expected 429, got %d", rec.Code)
		}
		if rec.Header().Get("Retry-After") == "" {
			t.Error("expected Retry-After header")
		}
	})
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.9:4321"
	if got := ClientIP(req); got != "192.168.1.9" {
		t.Errorf("ClientIP() = %q", got)
	}

	req.RemoteAddr = "pipe"
	if got := ClientIP(req); got != "pipe" {
		t.Errorf("ClientIP() = %q", got)
	}
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	r := NewBasicRouter()
	r.Use(m.Middleware())
	r.HandleFunc(http.MethodGet, "/things/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/things/1", nil))
	m.RecordLogin(LoginSuccess)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		`checklists_http_requests_total{method="GET",route="GET /things/{id}",status="204"} 1`,
		`checklists_logins_total{outcome="success"} 1`,
		"checklists_http_request_duration_seconds",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "ok")
	})

	var buf strings.Builder
	srv := New(ln.Addr().String(), handler, Options{Logger: shared.NewLogger(&buf), ShutdownTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("unexpected body %q", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
