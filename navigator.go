package authclient

import (
	"context"
	"fmt"
	"sync"
)

const defaultMaxRedirects = 4

// View is a screen reachable through the Navigator
type View interface {
	Enter(ctx context.Context, identity *Identity)
}

// ViewFunc adapts a plain function to View
type ViewFunc func(ctx context.Context, identity *Identity)

func (f ViewFunc) Enter(ctx context.Context, identity *Identity) {
	f(ctx, identity)
}

// Navigation describes where a navigation ended and how it got there
type Navigation struct {
	Requested  string
	Path       string
	Route      Route
	Redirected bool
	Hops       []string
}

// Navigator evaluates the guards before activating a view. Denials are
// followed until an allowed route is reached, only that final view is
// entered.
type Navigator struct {
	routes       *RouteTable
	store        *Store
	logger       Logger
	maxRedirects int

	mu      sync.RWMutex
	views   map[string]View
	current string
}

// NavigatorOption customizes Navigator construction
type NavigatorOption func(*Navigator)

// WithRouteTable overrides the default application routes
func WithRouteTable(table *RouteTable) NavigatorOption {
	return func(n *Navigator) {
		if table != nil {
			n.routes = table
		}
	}
}

// WithNavigatorLogger overrides the logger
func WithNavigatorLogger(logger Logger) NavigatorOption {
	return func(n *Navigator) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithMaxRedirects caps how many denials a single navigation follows
func WithMaxRedirects(max int) NavigatorOption {
	return func(n *Navigator) {
		if max > 0 {
			n.maxRedirects = max
		}
	}
}

// NewNavigator returns a Navigator reading the identity from store
func NewNavigator(store *Store, opts ...NavigatorOption) *Navigator {
	n := &Navigator{
		routes:       DefaultRouteTable(),
		store:        store,
		logger:       defLogger{},
		maxRedirects: defaultMaxRedirects,
		views:        make(map[string]View),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}

	return n
}

// Register binds view to a route pattern of the table
func (n *Navigator) Register(pattern string, view View) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if view == nil {
		delete(n.views, pattern)
		return
	}
	n.views[pattern] = view
}

// Current is the path of the last completed navigation
func (n *Navigator) Current() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}

// Navigate moves to path, following guard redirects. The error is only set
// when redirects keep bouncing past the configured limit.
func (n *Navigator) Navigate(ctx context.Context, path string) (Navigation, error) {
	identity := n.store.Current()

	nav := Navigation{Requested: path}
	target := NormalizePath(path)

	for hop := 0; ; hop++ {
		decision := n.routes.Authorize(target, identity)
		if decision.Allowed {
			break
		}

		if hop >= n.maxRedirects {
			return nav, fmt.Errorf("navigate %s: too many redirects: %v", path, append(nav.Hops, target))
		}

		n.logger.Debug("navigation to %s denied, redirecting to %s", target, decision.Redirect)
		nav.Hops = append(nav.Hops, target)
		nav.Redirected = true
		target = NormalizePath(decision.Redirect)
	}

	route, _ := n.routes.Resolve(target)
	nav.Path = target
	nav.Route = route

	n.mu.Lock()
	n.current = target
	view := n.views[route.Pattern]
	n.mu.Unlock()

	if view != nil {
		view.Enter(ctx, identity)
	}

	return nav, nil
}
