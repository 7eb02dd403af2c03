package bioauth

import (
	"context"
	"log"

	"github.com/veldtbank/bioauth/flags"
)

// Route is the startup navigation target.
type Route uint8

const (
	// RouteMain is the authenticated app: a valid remote session exists.
	RouteMain Route = iota
	// RouteReauth is the re-authentication screen with the biometric fast
	// path pre-armed: the session lapsed but the device remembers the user.
	RouteReauth
	// RouteOnboarding is the first-run flow.
	RouteOnboarding
	// RouteLogin is the plain login screen.
	RouteLogin
)

func (r Route) String() string {
	switch r {
	case RouteMain:
		return "main"
	case RouteReauth:
		return "reauth"
	case RouteOnboarding:
		return "onboarding"
	case RouteLogin:
		return "login"
	default:
		return "unknown"
	}
}

// DetermineInitialRoute picks the startup screen. Priority order, exact and
// non-overridable by later checks: a live session wins; otherwise a device
// that remembers a previous login goes to re-authentication even when
// onboarding never completed; otherwise incomplete onboarding wins; the
// plain login screen is the fallback.
func DetermineInitialRoute(sessionPresent, onboardingCompleted, wasLoggedIn bool) Route {
	switch {
	case sessionPresent:
		return RouteMain
	case wasLoggedIn:
		return RouteReauth
	case !onboardingCompleted:
		return RouteOnboarding
	default:
		return RouteLogin
	}
}

// InitialRoute combines the backend's current session with the persisted
// lifecycle flags and returns the startup route. It also marks the
// first-launch flag. Flag read failures degrade to the flag being unset so
// startup never hard-fails on local storage.
func (e *Engine) InitialRoute(ctx context.Context) (Route, error) {
	if e == nil {
		return RouteLogin, ErrEngineNotReady
	}

	if err := e.flags.Set(ctx, flags.HasLaunchedBefore); err != nil {
		log.Print("bioauth: persisting first-launch flag failed")
	}

	session, err := e.backend.CurrentSession(ctx)
	if err != nil {
		return RouteLogin, classifyBackendError(err)
	}

	onboarded := e.readFlag(ctx, flags.OnboardingCompleted)
	wasLoggedIn := e.readFlag(ctx, flags.WasLoggedIn)

	return DetermineInitialRoute(session != nil, onboarded, wasLoggedIn), nil
}

// CompleteOnboarding persists the onboarding-completed flag. Called once by
// the onboarding flow's final step.
func (e *Engine) CompleteOnboarding(ctx context.Context) error {
	if err := e.flags.Set(ctx, flags.OnboardingCompleted); err != nil {
		e.setError(ErrStorageFailure)
		return ErrStorageFailure
	}
	return nil
}

func (e *Engine) readFlag(ctx context.Context, name string) bool {
	set, err := e.flags.IsSet(ctx, name)
	if err != nil {
		log.Print("bioauth: reading lifecycle flag failed")
		return false
	}
	return set
}
