package middleware

import "net/http"

// Middleware wraps an http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Chain is an ordered middleware stack. The zero value is an empty chain.
type Chain struct {
	stack []Middleware
}

// Use appends middleware to the chain. Earlier middleware runs first.
func (c *Chain) Use(mws ...Middleware) {
	c.stack = append(c.stack, mws...)
}

// Len reports the number of middleware in the chain.
func (c *Chain) Len() int {
	return len(c.stack)
}

// Then wraps handler with every middleware in the chain.
func (c *Chain) Then(handler http.Handler) http.Handler {
	for i := len(c.stack) - 1; i >= 0; i-- {
		handler = c.stack[i](handler)
	}
	return handler
}
