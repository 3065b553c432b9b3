// Package services builds proxied Spotify clients for accounts in the credential store and performs the pool's actions.
//
// # Remote Interface
//
// [Remote] is the capability set used on behalf of one account: resolve the current user, create a playlist,
// add items to a playlist and start playback. [SpotifyClient] implements it on top of resty.
//
// # Client Factory
//
// [Factory.Client] checks the account against the store, picks a proxy, and wires:
//   - an [http.Transport] that sends both http and https traffic through that proxy
//   - an [oauth2.Transport] whose token source reads the account's cache file
//   - a resty client rooted at the API base URL
//
// The [oauth2.Client] refreshes expired tokens through the same proxy and the refreshed token is written back
// to the cache. A client is built per call and never reused.
//
// # Token Cache
//
// [TokenCache] keeps one file per account (cache_<account>.json). Tokens are seeded by [Authorizer.Exchange]
// during `spool auth login`.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrAccountNotFound] : account is not in the store
//   - [shared.ErrNotAuthenticated] : no cached token for the account
//   - [shared.ErrRemoteCall] : any failed call, carried by [RemoteError]
//
// No call is retried.
package services
