// Package server runs the short-lived HTTP listener that completes an account's Spotify login.
//
// [BasicRouter] registers [http.ServeMux] patterns ("GET /callback") behind a middleware stack;
// the first middleware added runs outermost. [RequestLogger] logs method, path, status and
// latency, never the query string, since the callback carries the authorization code.
//
// [OAuthHandler] serves [CallbackPath] for one pool account. It checks the state parameter,
// hands the code to an [Exchanger] (services.Authorizer, which exchanges it through the account's
// proxy and writes the token cache) and delivers exactly one [OAuthResult]. Replayed callbacks
// are rejected.
//
// `spool auth login <account>` binds the configured host and port, opens the consent page,
// waits for the result and shuts the listener down.
package server
