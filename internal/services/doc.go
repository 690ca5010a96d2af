// Package services talks to the two remote systems the client depends on: the movie catalog backend and the identity provider.
//
// # Backend Client
//
// [APIService] wraps [http.Client] with a base URL, the x-user-email identity header, optional request pacing, and a
// timeout policy. [APIService.Do] normalizes every failure into a [*shared.Error] whose Kind is one of network,
// validation, unauthorized, not_found or unknown. The kind is taken from the backend's machine-readable code when
// present and from the HTTP status otherwise.
//
// [CatalogClient] maps each backend endpoint to a typed method and implements [Catalog] and [UserDirectory].
//
// # Identity
//
// [IdentityProvider] is the sign-in abstraction pages and the session holder consume.
// [FirebaseProvider] implements it over the Identity Toolkit REST API and refreshes ID tokens with
// [golang.org/x/oauth2]. Sessions are persisted through a [TokenStore].
//
// Google sign-in is delegated to a [FederatedAuthorizer]. [GoogleAuthorizer] runs the consent flow through the
// loopback callback server in the server package.
//
// # Error Handling
//
// Backend failures are [*shared.Error]. Identity failures are [*AuthError] carrying a provider code such as
// auth/wrong-password; [AuthCode] extracts it.
package services
