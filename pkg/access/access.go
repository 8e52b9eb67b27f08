// Package access holds the admin route table and decides which routes a
// signed-in user may open.
package access

import (
	"strings"

	"github.com/goliatone/go-editform/pkg/client"
)

// RoleSuperAdmin is the role allowed on restricted routes.
const RoleSuperAdmin = "super_admin"

const (
	LoginPath  = "/admin-gest"
	DeniedPath = "/access-denied"
)

// Rule restricts a route.
type Rule int

const (
	// Public routes need no session.
	Public Rule = iota
	// Authenticated routes need a session.
	Authenticated
	// AdminOnly routes manage users.
	AdminOnly
	// DevOnly routes manage products, page creation and settings.
	DevOnly
)

// Route is one admin path. Pattern segments starting with ':' match any
// non empty segment.
type Route struct {
	Name    string
	Pattern string
	Rule    Rule
}

// Routes is the admin route table.
var Routes = []Route{
	{Name: "login", Pattern: "/admin-gest", Rule: Public},
	{Name: "home", Pattern: "/admin-gest/home", Rule: Authenticated},
	{Name: "register", Pattern: "/admin-gest/register", Rule: AdminOnly},
	{Name: "users", Pattern: "/admin-gest/utilisateurs", Rule: AdminOnly},
	{Name: "user.edit", Pattern: "/admin-gest/update/user/:id", Rule: AdminOnly},
	{Name: "product.add", Pattern: "/admin-gest/produit/add", Rule: DevOnly},
	{Name: "products", Pattern: "/admin-gest/produits", Rule: DevOnly},
	{Name: "product.edit", Pattern: "/admin-gest/produits/edit/:id", Rule: DevOnly},
	{Name: "pages", Pattern: "/admin-gest/pages", Rule: Public},
	{Name: "page.add", Pattern: "/admin-gest/pages/add", Rule: DevOnly},
	{Name: "page.edit", Pattern: "/admin-gest/pages/edit/:id", Rule: Public},
	{Name: "rdvs", Pattern: "/admin-gest/rdvs", Rule: AdminOnly},
	{Name: "settings", Pattern: "/admin-gest/settings", Rule: DevOnly},
	{Name: "denied", Pattern: "/access-denied", Rule: Public},
}

// Decision is the outcome of a route check.
type Decision struct {
	Route    Route
	Allowed  bool
	Redirect string
	Params   map[string]string
}

// Match finds the route for path. Unknown paths fall back to the login
// route.
func Match(path string) (Route, map[string]string) {
	path = clean(path)
	for _, r := range Routes {
		if params, ok := match(r.Pattern, path); ok {
			return r, params
		}
	}
	return Routes[0], nil
}

// Check decides whether user may open path. Without a session restricted
// routes redirect to the login page; with the wrong role they redirect to
// the access denied page.
func Check(path string, user *client.User) Decision {
	route, params := Match(path)
	d := Decision{Route: route, Params: params}
	switch {
	case route.Rule == Public:
		d.Allowed = true
	case user == nil:
		d.Redirect = LoginPath
	case route.Rule == Authenticated:
		d.Allowed = true
	case user.Role == RoleSuperAdmin:
		d.Allowed = true
	default:
		d.Redirect = DeniedPath
	}
	return d
}

// CheckSession reads the user from store and calls Check.
func CheckSession(path string, store client.SessionStore) Decision {
	if store == nil {
		return Check(path, nil)
	}
	if u, ok := store.User(); ok {
		return Check(path, &u)
	}
	return Check(path, nil)
}

// Visible lists the routes user may open, skipping parameterised ones.
func Visible(user *client.User) []Route {
	var out []Route
	for _, r := range Routes {
		if strings.Contains(r.Pattern, ":") || r.Rule == Public {
			continue
		}
		if Check(r.Pattern, user).Allowed {
			out = append(out, r)
		}
	}
	return out
}

func match(pattern, path string) (map[string]string, bool) {
	want := strings.Split(pattern, "/")
	got := strings.Split(path, "/")
	if len(want) != len(got) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range want {
		if name, ok := strings.CutPrefix(seg, ":"); ok {
			if got[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[name] = got[i]
			continue
		}
		if seg != got[i] {
			return nil, false
		}
	}
	return params, true
}

func clean(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}
