package pages

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/desertthunder/moviemaster/internal/models"
	"github.com/desertthunder/moviemaster/internal/services"
	"github.com/desertthunder/moviemaster/internal/shared"
)

// Authenticator signs users in. [session.Holder] implements it.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*models.SessionUser, error)
	SignInWithGoogle(ctx context.Context) (*models.SessionUser, error)
	SignUp(ctx context.Context, email, password, displayName, photoURL string) (*models.SessionUser, error)
}

var loginMessages = map[string]string{
	services.CodeUserNotFound:      "No account found with this email. Please register first.",
	services.CodeWrongPassword:     "Incorrect password. Please try again.",
	services.CodeInvalidCredential: "Invalid email or password. Please try again.",
	services.CodeInvalidEmail:      "Invalid email address. Please check your email.",
	services.CodeUserDisabled:      "This account has been disabled. Please contact support.",
	services.CodeTooManyRequests:   "Too many failed attempts. Please try again later.",
}

var registerMessages = map[string]string{
	services.CodeEmailAlreadyInUse: "This email is already registered. Please login instead.",
	services.CodeWeakPassword:      "Password is too weak. Please use a stronger password.",
	services.CodeInvalidEmail:      "Invalid email address. Please check your email.",
}

var popupMessages = map[string]string{
	services.CodePopupClosedByUser:     "Sign-in popup was closed. Please try again.",
	services.CodePopupBlocked:          "Popup was blocked. Please allow popups for this site.",
	services.CodeCancelledPopupRequest: "Only one popup request is allowed at a time.",
}

// AuthMessage maps a provider error to the message shown to the user.
//
// Unmapped codes use the provider's own message, then fallback.
func AuthMessage(err error, messages map[string]string, fallback string) string {
	if msg, ok := messages[services.AuthCode(err)]; ok {
		return msg
	}
	var authErr *services.AuthError
	if errors.As(err, &authErr) {
		if authErr.Message != "" {
			return authErr.Message
		}
		return fallback
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}

// ValidatePassword applies the registration password rules.
func ValidatePassword(password string) error {
	var upper, lower bool
	for _, r := range password {
		upper = upper || unicode.IsUpper(r)
		lower = lower || unicode.IsLower(r)
	}

	switch {
	case len(password) < 6:
		return shared.NewValidationError("Password must be at least 6 characters long")
	case !upper:
		return shared.NewValidationError("Password must contain at least one uppercase letter")
	case !lower:
		return shared.NewValidationError("Password must contain at least one lowercase letter")
	}
	return nil
}

// Registration is the sign-up form.
type Registration struct {
	Name            string
	Email           string
	PhotoURL        string
	Password        string
	ConfirmPassword string
}

// Auth backs the sign-in and registration pages.
type Auth struct {
	deps Deps
	auth Authenticator
}

// NewAuth creates the auth page controller.
func NewAuth(deps Deps, auth Authenticator) *Auth {
	return &Auth{deps: deps.withDefaults(), auth: auth}
}

// Login signs in with email and password and navigates home.
func (a *Auth) Login(ctx context.Context, email, password string) (*models.SessionUser, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		a.deps.Notifier.Error("Please fill in all required fields")
		return nil, shared.NewValidationError("Please fill in all required fields")
	}

	user, err := a.auth.SignIn(ctx, email, password)
	if err != nil {
		a.deps.Logger.Warn("sign-in failed", "email", email, "code", services.AuthCode(err))
		a.deps.Notifier.Error(AuthMessage(err, loginMessages, "Failed to login. Please check your credentials."))
		return nil, err
	}

	a.deps.Notifier.Success("Successfully logged in!")
	a.deps.Navigator.Navigate(RouteHome)
	return user, nil
}

// LoginWithGoogle runs the federated sign-in and navigates home.
func (a *Auth) LoginWithGoogle(ctx context.Context) (*models.SessionUser, error) {
	return a.google(ctx, "Successfully logged in with Google!", "Failed to login with Google. Please try again.")
}

// RegisterWithGoogle is [Auth.LoginWithGoogle] with registration wording.
func (a *Auth) RegisterWithGoogle(ctx context.Context) (*models.SessionUser, error) {
	return a.google(ctx, "Successfully registered with Google!", "Failed to register with Google. Please try again.")
}

func (a *Auth) google(ctx context.Context, success, fallback string) (*models.SessionUser, error) {
	user, err := a.auth.SignInWithGoogle(ctx)
	if err != nil {
		a.deps.Logger.Warn("google sign-in failed", "code", services.AuthCode(err))
		a.deps.Notifier.Error(AuthMessage(err, popupMessages, fallback))
		return nil, err
	}

	a.deps.Notifier.Success(success)
	a.deps.Navigator.Navigate(RouteHome)
	return user, nil
}

// Register validates the form, creates the account and navigates home.
func (a *Auth) Register(ctx context.Context, form Registration) (*models.SessionUser, error) {
	if strings.TrimSpace(form.Email) == "" || form.Password == "" {
		a.deps.Notifier.Error("Please fill in all required fields")
		return nil, shared.NewValidationError("Please fill in all required fields")
	}
	if form.Password != form.ConfirmPassword {
		a.deps.Notifier.Error("Passwords do not match")
		return nil, shared.NewValidationError("Passwords do not match")
	}
	if err := ValidatePassword(form.Password); err != nil {
		a.deps.Notifier.Error(shared.Message(err))
		return nil, err
	}

	user, err := a.auth.SignUp(ctx, form.Email, form.Password, form.Name, form.PhotoURL)
	if err != nil {
		a.deps.Logger.Warn("sign-up failed", "email", form.Email, "code", services.AuthCode(err))
		a.deps.Notifier.Error(AuthMessage(err, registerMessages, "Failed to create account. Please try again."))
		return nil, err
	}

	a.deps.Notifier.Success("Account created successfully! Logging you in...")
	a.deps.Navigator.Navigate(RouteHome)
	return user, nil
}
