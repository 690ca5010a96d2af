// Package server provides the loopback HTTP infrastructure used by interactive sign-in.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first).
// [RequestLogger] and [Recoverer] are the middleware used by the callback server.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] receives the authorization code redirect for federated sign-in.
//
// The handler validates the state parameter, exchanges the authorization code for tokens,
// and sends exactly one [OAuthResult] through its result channel.
// A user who denies consent produces a result with [ErrConsentDenied].
//
// # Current Usage
//
// Google sign-in starts a temporary server on the configured loopback address (localhost:3000 by default),
// opens the consent page in the browser, and shuts the server down once the callback arrives or the flow times out.
package server
