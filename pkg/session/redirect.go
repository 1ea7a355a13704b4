package session

import "github.com/grovetools/ftrack/internal/store"

// Routes known to the redirect policy.
const (
	RouteLogin     = "/login"
	RouteSignup    = "/signup"
	RouteDashboard = "/dashboard"
	RouteRoot      = "/"
)

// IsPublic reports whether route is one of the auth routes reachable
// without a session.
func IsPublic(route string) bool {
	return route == RouteLogin || route == RouteSignup
}

// Redirect decides where the view layer should send the user. It returns
// ok=false when the route may be shown as is, including while the saved
// session is still being restored.
func Redirect(st store.State, route string) (target string, ok bool) {
	if st.Rehydrating {
		return "", false
	}

	authed := st.Session.Authenticated()
	switch {
	case !authed && !IsPublic(route):
		return RouteLogin, true
	case authed && (IsPublic(route) || route == RouteRoot):
		return RouteDashboard, true
	}
	return "", false
}
