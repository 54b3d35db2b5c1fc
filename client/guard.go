package client

import (
	"slices"
)

const (
	DefaultLoginPath = "/login"
	DefaultHomePath  = "/"
)

// Route describes a guarded view: which roles may see it and where to send
// visitors who may not
type Route struct {
	// Empty list means any authenticated identity
	AllowedRoles []Role

	// Where unauthenticated visitors go, DefaultLoginPath if empty
	LoginPath string

	// Where authenticated but unauthorized visitors go, DefaultHomePath
	// if empty. Distinct from LoginPath: lacking a role is not lacking
	// a session.
	HomePath string
}

type DecisionKind int

const (
	// Session check still running, render a neutral waiting indicator,
	// decide nothing yet
	DecisionWait DecisionKind = iota

	// Session check failed, surface the error in place. No redirect:
	// bouncing on a transient failure makes redirect loops.
	DecisionShowError

	// No session, go to login and remember where the visitor was heading
	DecisionRedirectLogin

	// Session present but role not allowed, go to the landing page
	DecisionRedirectHome

	// All clear, render the protected content
	DecisionRender
)

type Decision struct {
	Kind DecisionKind

	// Target path for the redirect kinds
	RedirectTo string

	// Original location, restored after login. Set only for
	// DecisionRedirectLogin.
	From string

	// Session check failure, set only for DecisionShowError
	Err error
}

// Decide is the route guard: given the session state and the route's
// requirements it picks what to do with the visitor at current.
// Pure function, the priority order matters: loading wins over everything
// (no redirect may flash before the check resolves), errors win over
// redirects, authentication is checked before authorization.
func Decide(state State, route Route, current string) Decision {
	if state.Loading {
		return Decision{Kind: DecisionWait}
	}

	if state.Err != nil {
		return Decision{Kind: DecisionShowError, Err: state.Err}
	}

	if state.User == nil {
		loginPath := route.LoginPath
		if loginPath == "" {
			loginPath = DefaultLoginPath
		}
		return Decision{Kind: DecisionRedirectLogin, RedirectTo: loginPath, From: current}
	}

	if len(route.AllowedRoles) > 0 && !slices.Contains(route.AllowedRoles, state.User.Role) {
		homePath := route.HomePath
		if homePath == "" {
			homePath = DefaultHomePath
		}
		return Decision{Kind: DecisionRedirectHome, RedirectTo: homePath}
	}

	return Decision{Kind: DecisionRender}
}
