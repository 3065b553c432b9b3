package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spool/internal/shared"
	"golang.org/x/oauth2"
)

type mockExchanger struct {
	token *oauth2.Token
	err   error
	codes []string
}

func (m *mockExchanger) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	m.codes = append(m.codes, code)
	return m.token, m.err
}

func TestOAuthHandler(t *testing.T) {
	t.Run("successful callback", func(t *testing.T) {
		ex := &mockExchanger{token: &oauth2.Token{AccessToken: "access", RefreshToken: "refresh"}}
		h := NewOAuthHandler(ex, "alice", "state123")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=abc", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "alice") {
			t.Error("page should name the account")
		}

		result := <-h.Result()
		if result.Error() != nil {
			t.Fatalf("unexpected error: %v", result.Error())
		}
		if result.Token.AccessToken != "access" || result.Account != "alice" {
			t.Errorf("unexpected result: %+v", result)
		}
		if len(ex.codes) != 1 || ex.codes[0] != "abc" {
			t.Errorf("exchanger got codes %v", ex.codes)
		}
	})

	t.Run("account name is escaped", func(t *testing.T) {
		h := NewOAuthHandler(&mockExchanger{token: &oauth2.Token{}}, "<b>eve</b>", "s")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=c", nil))

		if strings.Contains(rec.Body.String(), "<b>eve</b>") {
			t.Error("account name rendered unescaped")
		}
	})

	t.Run("invalid state", func(t *testing.T) {
		ex := &mockExchanger{}
		h := NewOAuthHandler(ex, "alice", "expected")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=forged&code=abc", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		if result := <-h.Result(); !errors.Is(result.Error(), shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", result.Error())
		}
		if len(ex.codes) != 0 {
			t.Error("code must not be exchanged with a bad state")
		}
	})

	t.Run("denied authorization", func(t *testing.T) {
		h := NewOAuthHandler(&mockExchanger{}, "alice", "s")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s&error=access_denied", nil))

		result := <-h.Result()
		if !errors.Is(result.Error(), shared.ErrAuthFailed) || !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("unexpected error: %v", result.Error())
		}
	})

	t.Run("exchange failure", func(t *testing.T) {
		h := NewOAuthHandler(&mockExchanger{err: errors.New("proxy refused")}, "alice", "s")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=c", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
		if result := <-h.Result(); result.Error() == nil || result.Token != nil {
			t.Errorf("expected failure, got %+v", result)
		}
	})

	t.Run("only the first callback is handled", func(t *testing.T) {
		ex := &mockExchanger{token: &oauth2.Token{AccessToken: "a"}}
		h := NewOAuthHandler(ex, "alice", "s")

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?state=s&code=1", nil))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=2", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("replay status = %d, want 400", rec.Code)
		}
		if len(ex.codes) != 1 {
			t.Errorf("expected one exchange, got %d", len(ex.codes))
		}

		if _, ok := <-h.Result(); !ok {
			t.Fatal("expected a result before the channel closes")
		}
		if _, ok := <-h.Result(); ok {
			t.Error("result channel should be closed after one result")
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("method filtering", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("pong"))
		}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Body.String() != "pong" {
			t.Errorf("body = %q", rec.Body.String())
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rec.Code)
		}
	})

	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, req)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mw("first"), mw("second"))
		r.Handle(http.MethodGet, "/", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			order = append(order, "handler")
		}))
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if got := strings.Join(order, ","); got != "first,second,handler" {
			t.Errorf("order = %s", got)
		}
	})

	t.Run("Handler registers routes", func(t *testing.T) {
		h := NewOAuthHandler(&mockExchanger{token: &oauth2.Token{}}, "alice", "s")
		r := NewBasicRouter()
		r.Handler(h)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=c", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := shared.NewLogger(&buf)
	logger.SetLevel(log.DebugLevel)

	r := NewBasicRouter()
	r.Use(RequestLogger(logger))
	r.Handle(http.MethodGet, "/callback", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?code=secret-code", nil))

	out := buf.String()
	if !strings.Contains(out, "/callback") || !strings.Contains(out, "418") {
		t.Errorf("log missing path or status: %s", out)
	}
	if strings.Contains(out, "secret-code") {
		t.Error("log leaked the authorization code")
	}
}
