/*
Package nav decides what the navigation bar shows and where auth-gated
pages redirect, based on a session snapshot.
*/
package nav

import "profilelounge/internal/app/session"

// Paths of the pages the shell knows about.
const (
	PathIndex     = "/"
	PathLogin     = "/login"
	PathRegister  = "/register"
	PathLogout    = "/logout"
	PathDashboard = "/dashboard"
)

// Route identifies a page for Guard.
type Route int

const (
	RoutePublic Route = iota
	RouteLogin
	RouteRegister
	RouteDashboard
)

// Decision is the outcome of Guard.
type Decision struct {
	// Redirect is the target path, empty to render the page.
	Redirect string

	// Wait is set while the session is still loading; the page should render
	// a loading placeholder and make no redirect yet.
	Wait bool
}

// Guard applies the redirect rules: the dashboard requires a user, login and
// register are skipped for signed-in users. Nothing is decided while the
// session is loading.
func Guard(route Route, snap session.Snapshot) Decision {
	if route == RoutePublic {
		return Decision{}
	}

	if snap.Loading {
		return Decision{Wait: true}
	}

	switch route {
	case RouteDashboard:
		if !snap.Authenticated() {
			return Decision{Redirect: PathLogin}
		}
	case RouteLogin, RouteRegister:
		if snap.Authenticated() {
			return Decision{Redirect: PathDashboard}
		}
	}

	return Decision{}
}

// Link is one navigation entry. Post marks actions submitted as a form.
type Link struct {
	Label string
	Path  string
	Post  bool
}

// Links returns the auth-dependent navigation entries. While loading none
// are shown, so the bar never claims a state it does not know.
func Links(snap session.Snapshot) []Link {
	if snap.Loading {
		return nil
	}

	if snap.Authenticated() {
		return []Link{
			{Label: snap.User.Username, Path: PathDashboard},
			{Label: "Logout", Path: PathLogout, Post: true},
		}
	}

	return []Link{
		{Label: "Login", Path: PathLogin},
		{Label: "Register", Path: PathRegister},
	}
}
