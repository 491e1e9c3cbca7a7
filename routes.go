package authclient

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Application routes.
const (
	RouteRegister        = "/register"
	RouteResetPassword   = "/reset-password"
	RouteCharacterNew    = "/character/new"
	RouteCharacterView   = "/character/*"
	RouteCharacterEdit   = "/character/*/edit"
	RouteAccountSettings = "/account-settings"
	RouteManageUsers     = "/manage-users"
)

// Route binds a path pattern to the capability it requires. Patterns use
// glob syntax where * matches a single path segment.
type Route struct {
	Pattern  string
	Required Capability
	matcher  glob.Glob
}

// RouteTable resolves paths against an ordered list of routes, first match
// wins. Paths matching no route are sent to Fallback.
type RouteTable struct {
	routes   []Route
	Fallback string
}

// RouteDefinition is an uncompiled Route
type RouteDefinition struct {
	Pattern  string
	Required Capability
}

// DefaultRouteDefinitions is the application route table. More specific
// patterns come before the ones that would shadow them.
func DefaultRouteDefinitions() []RouteDefinition {
	return []RouteDefinition{
		{Pattern: RouteStart, Required: CapabilityNone},
		{Pattern: RouteLogin, Required: CapabilityNone},
		{Pattern: RouteRegister, Required: CapabilityNone},
		{Pattern: RouteResetPassword, Required: CapabilityNone},
		{Pattern: RouteUserMain, Required: CapabilityAuthenticated},
		{Pattern: RouteAdminMain, Required: CapabilityAdminClass},
		{Pattern: RouteCharacterNew, Required: CapabilityAdminClass},
		{Pattern: RouteCharacterEdit, Required: CapabilityAdminClass},
		{Pattern: RouteCharacterView, Required: CapabilityAuthenticated},
		{Pattern: RouteAccountSettings, Required: CapabilityAuthenticated},
		{Pattern: RouteManageUsers, Required: CapabilityAdminOnly},
	}
}

// NewRouteTable compiles definitions in order
func NewRouteTable(defs []RouteDefinition) (*RouteTable, error) {
	table := &RouteTable{Fallback: RouteStart}
	for _, def := range defs {
		g, err := glob.Compile(def.Pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("compile route pattern %q: %w", def.Pattern, err)
		}
		table.routes = append(table.routes, Route{
			Pattern:  def.Pattern,
			Required: def.Required,
			matcher:  g,
		})
	}
	return table, nil
}

// DefaultRouteTable returns the compiled application route table
func DefaultRouteTable() *RouteTable {
	table, err := NewRouteTable(DefaultRouteDefinitions())
	if err != nil {
		panic(err)
	}
	return table
}

// Routes returns the routes in match order
func (t *RouteTable) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Resolve finds the route serving path
func (t *RouteTable) Resolve(path string) (Route, bool) {
	path = NormalizePath(path)
	for _, r := range t.routes {
		if r.matcher.Match(path) {
			return r, true
		}
	}
	return Route{}, false
}

// Authorize decides whether identity may enter path. Unknown paths are
// redirected to the fallback the same way a denial is.
func (t *RouteTable) Authorize(path string, identity *Identity) Decision {
	route, ok := t.Resolve(path)
	if !ok {
		return Deny(t.Fallback)
	}
	return Authorize(route.Required, identity)
}

// NormalizePath drops query and fragment, ensures a leading slash and
// removes a trailing one.
func NormalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
