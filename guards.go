package authclient

// Decision is the outcome of a guard: allow, or deny and redirect.
// A denial is not an error, the navigation layer just bounces.
type Decision struct {
	Allowed  bool
	Redirect string
}

// Allow lets the navigation through
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny aborts the navigation and sends the user to redirect
func Deny(redirect string) Decision {
	return Decision{Redirect: redirect}
}

// Guard is a navigation time predicate over the current identity. Guards
// are pure, they never touch the session.
type Guard func(identity *Identity) Decision

// AuthenticatedGuard requires a current identity
func AuthenticatedGuard(identity *Identity) Decision {
	if identity == nil {
		return Deny(RouteStart)
	}
	return Allow()
}

// AdminClassGuard requires ADMIN or EMPLOYEE
func AdminClassGuard(identity *Identity) Decision {
	if IsAdminClass(identity) {
		return Allow()
	}
	return Deny(RouteUserMain)
}

// AdminOnlyGuard requires ADMIN. Admin-class identities are bounced to their
// own landing route, everyone else to the user one.
func AdminOnlyGuard(identity *Identity) Decision {
	if IsAdminOnly(identity) {
		return Allow()
	}
	if IsAdminClass(identity) {
		return Deny(RouteAdminMain)
	}
	return Deny(RouteUserMain)
}

// Chain evaluates guards in order and stops at the first denial
func Chain(guards ...Guard) Guard {
	return func(identity *Identity) Decision {
		for _, g := range guards {
			if g == nil {
				continue
			}
			if d := g(identity); !d.Allowed {
				return d
			}
		}
		return Allow()
	}
}

// GuardsFor returns the guard chain protecting a capability level.
// Authentication always comes first so an anonymous visitor is sent to the
// start page rather than to a role landing route.
func GuardsFor(required Capability) []Guard {
	switch required {
	case CapabilityNone:
		return nil
	case CapabilityAuthenticated:
		return []Guard{AuthenticatedGuard}
	case CapabilityAdminClass:
		return []Guard{AuthenticatedGuard, AdminClassGuard}
	case CapabilityAdminOnly:
		return []Guard{AuthenticatedGuard, AdminOnlyGuard}
	default:
		return []Guard{AuthenticatedGuard, AdminOnlyGuard}
	}
}

// Authorize decides whether identity may enter a route requiring required
func Authorize(required Capability, identity *Identity) Decision {
	return Chain(GuardsFor(required)...)(identity)
}
