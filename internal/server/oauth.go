package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/desertthunder/spool/internal/shared"
	"golang.org/x/oauth2"
)

// CallbackPath is the path component the redirect URI must use.
const CallbackPath = "/callback"

// Exchanger trades an authorization code for a token. [services.Authorizer] implements it
// and also persists the token to the account's cache.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// OAuthResult is the outcome of one login callback.
type OAuthResult struct {
	Token   *oauth2.Token
	Account string
	err     error
}

func (o *OAuthResult) Error() error {
	return o.err
}

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>spool login</title>
  <style>
    body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; display: flex; align-items: center;
           justify-content: center; height: 100vh; margin: 0; background: #f5f5f5; }
    .box { text-align: center; background: white; padding: 2rem; border-radius: 8px; }
    h1 { margin: 0 0 1rem 0; }
    p { color: #666; margin: 0; }
  </style>
</head>
<body>
  <div class="box">
    <h1>{{if .OK}}✓ Logged in{{else}}✗ Login failed{{end}}</h1>
    <p>{{if .OK}}Account <strong>{{.Account}}</strong> is ready.{{else}}{{.Message}}{{end}}
       You can close this window and return to the terminal.</p>
  </div>
</body>
</html>
`))

type callbackView struct {
	OK      bool
	Account string
	Message string
}

// OAuthHandler completes the authorization code flow for a single account.
//
// Only the first callback is processed; later ones get a 400. Exactly one [OAuthResult]
// is delivered on [OAuthHandler.Result].
type OAuthHandler struct {
	exchanger Exchanger
	account   string
	state     string

	hit     atomic.Bool
	once    sync.Once
	results chan OAuthResult
}

// NewOAuthHandler returns a handler that logs in account. state must be the random value
// embedded in the consent URL.
func NewOAuthHandler(exchanger Exchanger, account, state string) *OAuthHandler {
	return &OAuthHandler{
		exchanger: exchanger,
		account:   account,
		state:     state,
		results:   make(chan OAuthResult, 1),
	}
}

// Routes returns the mux patterns this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{http.MethodGet + " " + CallbackPath}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.hit.CompareAndSwap(false, true) {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	if q.Get("state") != h.state {
		h.fail(w, http.StatusBadRequest, fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed))
		return
	}

	code := q.Get("code")
	if code == "" {
		h.fail(w, http.StatusBadRequest, fmt.Errorf("%w: %s - %s", shared.ErrAuthFailed, q.Get("error"), q.Get("error_description")))
		return
	}

	token, err := h.exchanger.Exchange(r.Context(), code)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, fmt.Errorf("token exchange failed: %w", err))
		return
	}

	h.Send(OAuthResult{Token: token, Account: h.account})
	render(w, http.StatusOK, callbackView{OK: true, Account: h.account})
}

func (h *OAuthHandler) fail(w http.ResponseWriter, status int, err error) {
	h.Send(OAuthResult{Account: h.account, err: err})
	render(w, status, callbackView{Message: err.Error()})
}

func render(w http.ResponseWriter, status int, view callbackView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = callbackPage.Execute(w, view)
}

// Send delivers result unless one was already delivered, then closes the channel.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result returns the channel carrying the single login outcome.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}
