// Package guard decides whether a protected route renders, redirects or
// waits for the role lookup, and applies that decision as HTTP middleware.
package guard

import "github.com/nacholimon/opinwork-firebase/internal/app/system/rolelookup"

type Capability int

const (
	AuthenticatedOnly Capability = iota
	AdminOnly
)

func (c Capability) String() string {
	switch c {
	case AuthenticatedOnly:
		return "authenticated_only"
	case AdminOnly:
		return "admin_only"
	default:
		return "unknown"
	}
}

type Outcome int

const (
	Loading Outcome = iota
	Render
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Redirect targets.
const (
	LoginPath     = "/login"
	RootPath      = "/"
	DashboardPath = "/dashboard"
)

// Decision is the guard's verdict. Target is set only for Redirect.
type Decision struct {
	Outcome Outcome
	Target  string
}

// Decide evaluates capability c for a caller. present reports whether an
// identity is signed in; rs is consulted only for AdminOnly. A role that
// could not be established is treated as non-admin.
func Decide(present bool, c Capability, rs rolelookup.State) Decision {
	switch c {
	case AdminOnly:
		if !present {
			return Decision{Outcome: Redirect, Target: RootPath}
		}
		if rs.Pending {
			return Decision{Outcome: Loading}
		}
		if !rs.IsAdmin() {
			return Decision{Outcome: Redirect, Target: DashboardPath}
		}
		return Decision{Outcome: Render}
	default:
		if !present {
			return Decision{Outcome: Redirect, Target: LoginPath}
		}
		return Decision{Outcome: Render}
	}
}
