package services

import (
	"context"
	"errors"
	"strings"

	"github.com/desertthunder/moviemaster/internal/models"
	"golang.org/x/oauth2"
)

// Identity provider error codes surfaced to pages.
const (
	CodeEmailAlreadyInUse     = "auth/email-already-in-use"
	CodeUserNotFound          = "auth/user-not-found"
	CodeWrongPassword         = "auth/wrong-password"
	CodeInvalidCredential     = "auth/invalid-credential"
	CodeInvalidEmail          = "auth/invalid-email"
	CodeUserDisabled          = "auth/user-disabled"
	CodeTooManyRequests       = "auth/too-many-requests"
	CodeWeakPassword          = "auth/weak-password"
	CodeMissingPassword       = "auth/missing-password"
	CodeOperationNotAllowed   = "auth/operation-not-allowed"
	CodeUserTokenExpired      = "auth/user-token-expired"
	CodePopupClosedByUser     = "auth/popup-closed-by-user"
	CodePopupBlocked          = "auth/popup-blocked"
	CodeCancelledPopupRequest = "auth/cancelled-popup-request"
	CodeNetworkRequestFailed  = "auth/network-request-failed"
	CodeNoCurrentUser         = "auth/no-current-user"
)

// AuthError is an identity provider failure carrying a provider code and the provider's own message.
type AuthError struct {
	Code    string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message + " (" + e.Code + ")"
	}
	return e.Code
}

func (e *AuthError) Unwrap() error { return e.Err }

// AuthCode extracts the provider code from err, or "" when err is not an [AuthError].
func AuthCode(err error) string {
	var e *AuthError
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IdentityProvider signs users in and reports session changes.
//
// Subscribers receive every change, including nil on sign-out.
// Restore publishes the persisted session, or nil, as the first event.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (*models.Principal, error)
	SignIn(ctx context.Context, email, password string) (*models.Principal, error)
	SignInWithGoogle(ctx context.Context) (*models.Principal, error)
	SignOut(ctx context.Context) error
	UpdateProfile(ctx context.Context, displayName, photoURL string) error
	Reload(ctx context.Context) (*models.Principal, error)
	Restore(ctx context.Context) error
	Current() *models.Principal
	Subscribe(fn func(*models.Principal)) (unsubscribe func())
}

// TokenStore persists the provider session between runs.
type TokenStore interface {
	Load() (*models.Principal, error)
	Save(p models.Principal) error
	Clear() error
}

// FederatedAuthorizer obtains an OAuth2 token from a third-party identity provider.
type FederatedAuthorizer interface {
	Authorize(ctx context.Context) (*oauth2.Token, error)
	ProviderID() string
}

// firebaseCodes maps Identity Toolkit error messages to client error codes.
var firebaseCodes = map[string]string{
	"EMAIL_EXISTS":                   CodeEmailAlreadyInUse,
	"EMAIL_NOT_FOUND":                CodeUserNotFound,
	"USER_NOT_FOUND":                 CodeUserNotFound,
	"INVALID_PASSWORD":               CodeWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":      CodeInvalidCredential,
	"INVALID_IDP_RESPONSE":           CodeInvalidCredential,
	"INVALID_EMAIL":                  CodeInvalidEmail,
	"USER_DISABLED":                  CodeUserDisabled,
	"TOO_MANY_ATTEMPTS_TRY_LATER":    CodeTooManyRequests,
	"WEAK_PASSWORD":                  CodeWeakPassword,
	"MISSING_PASSWORD":               CodeMissingPassword,
	"OPERATION_NOT_ALLOWED":          CodeOperationNotAllowed,
	"PASSWORD_LOGIN_DISABLED":        CodeOperationNotAllowed,
	"TOKEN_EXPIRED":                  CodeUserTokenExpired,
	"INVALID_ID_TOKEN":               CodeUserTokenExpired,
	"INVALID_REFRESH_TOKEN":          CodeUserTokenExpired,
	"CREDENTIAL_TOO_OLD_LOGIN_AGAIN": CodeUserTokenExpired,
}

// firebaseError builds an [AuthError] from an Identity Toolkit message such as
// "WEAK_PASSWORD : Password should be at least 6 characters".
func firebaseError(message string) *AuthError {
	reason, detail, _ := strings.Cut(message, ":")
	reason = strings.TrimSpace(reason)
	detail = strings.TrimSpace(detail)

	code, ok := firebaseCodes[reason]
	if !ok {
		code = "auth/" + strings.ReplaceAll(strings.ToLower(reason), "_", "-")
	}

	if detail == "" {
		detail = message
	}
	return &AuthError{Code: code, Message: detail}
}
