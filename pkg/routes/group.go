package routes

import "net/http"

// Group collects routes under a shared prefix. Children inherit the
// accumulated prefix of their parents.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds every route in groups to mux.
func Register(mux *http.ServeMux, groups ...Group) {
	walk("", groups, func(pattern string, route Route) {
		mux.HandleFunc(pattern, route.Handler)
	})
}

// Patterns returns the mux patterns Register would install, in
// declaration order.
func Patterns(groups ...Group) []string {
	var patterns []string
	walk("", groups, func(pattern string, _ Route) {
		patterns = append(patterns, pattern)
	})
	return patterns
}

func walk(parent string, groups []Group, visit func(string, Route)) {
	for _, group := range groups {
		prefix := parent + group.Prefix
		for _, route := range group.Routes {
			visit(route.pattern(prefix), route)
		}
		walk(prefix, group.Children, visit)
	}
}
