package authclient

// Capability is the access level a route or screen element requires
type Capability int

const (
	// CapabilityNone is open to anonymous visitors
	CapabilityNone Capability = iota
	// CapabilityAuthenticated requires any signed in identity
	CapabilityAuthenticated
	// CapabilityAdminClass is shared by ADMIN and EMPLOYEE
	CapabilityAdminClass
	// CapabilityAdminOnly is restricted to ADMIN
	CapabilityAdminOnly
)

func (c Capability) String() string {
	switch c {
	case CapabilityNone:
		return "none"
	case CapabilityAuthenticated:
		return "authenticated"
	case CapabilityAdminClass:
		return "admin-class"
	case CapabilityAdminOnly:
		return "admin-only"
	default:
		return "unknown"
	}
}

// Landing routes used for redirects and post login navigation.
const (
	RouteStart     = "/"
	RouteLogin     = "/login"
	RouteUserMain  = "/user-main"
	RouteAdminMain = "/admin-main"
)

// CapabilityOf returns the highest capability granted to identity.
// This is the single mapping from roles to capabilities, guards and
// presentational helpers must go through it.
func CapabilityOf(identity *Identity) Capability {
	if identity == nil {
		return CapabilityNone
	}

	switch identity.Role {
	case RoleAdmin:
		return CapabilityAdminOnly
	case RoleEmployee:
		return CapabilityAdminClass
	case RoleUser:
		return CapabilityAuthenticated
	default:
		// a signed in identity with an unknown role is still authenticated
		return CapabilityAuthenticated
	}
}

// Grants checks if identity meets the required capability
func Grants(identity *Identity, required Capability) bool {
	if required == CapabilityNone {
		return true
	}
	return CapabilityOf(identity) >= required
}

// IsAdminClass checks for ADMIN or EMPLOYEE
func IsAdminClass(identity *Identity) bool {
	return Grants(identity, CapabilityAdminClass)
}

// IsAdminOnly checks for ADMIN
func IsAdminOnly(identity *Identity) bool {
	return Grants(identity, CapabilityAdminOnly)
}

// LandingRoute is where an identity goes after login or when leaving a
// screen with "back".
func LandingRoute(identity *Identity) string {
	switch {
	case identity == nil:
		return RouteStart
	case IsAdminClass(identity):
		return RouteAdminMain
	default:
		return RouteUserMain
	}
}

// MenuItem is a sidebar entry
type MenuItem struct {
	Label string
	Path  string
}

// Menu is the role dependent sidebar content
type Menu struct {
	Username  string
	Initials  string
	RoleBadge string
	Items     []MenuItem
}

// MenuFor builds the sidebar for identity. Items mirror the route table so
// the sidebar never offers a link the guards would bounce.
func MenuFor(identity *Identity) Menu {
	menu := Menu{
		Username:  "User",
		RoleBadge: string(RoleUser),
	}

	if identity == nil {
		menu.Initials = "US"
		return menu
	}

	menu.Username = identity.Username
	menu.Initials = identity.Initials()
	menu.RoleBadge = string(identity.Role)

	menu.Items = append(menu.Items,
		MenuItem{Label: "Main Page", Path: LandingRoute(identity)},
		MenuItem{Label: "Account Settings", Path: RouteAccountSettings},
	)

	if IsAdminOnly(identity) {
		menu.Items = append(menu.Items, MenuItem{Label: "Manage Users", Path: RouteManageUsers})
	}

	// logout clears the session and lands on the start page
	menu.Items = append(menu.Items, MenuItem{Label: "Logout", Path: RouteStart})

	return menu
}
