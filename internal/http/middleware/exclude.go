package middleware

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gin-gonic/gin"
)

const excludedKey = "response.excluded"

// ExcludeRules lists request paths that opt out of envelope wrapping.
// Patterns use doublestar syntax: "/metrics", "/swagger/**", "/files/*.bin".
type ExcludeRules struct {
	patterns []string
}

// NewExcludeRules validates patterns. A malformed pattern is a startup error.
func NewExcludeRules(patterns []string) (*ExcludeRules, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return &ExcludeRules{patterns: append([]string(nil), patterns...)}, nil
}

// Match reports whether path matches any pattern.
func (r *ExcludeRules) Match(path string) bool {
	if r == nil {
		return false
	}
	for _, p := range r.patterns {
		// Patterns were validated, so the error is always nil.
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

// Handler marks matching requests as excluded. Handlers wrapped by the
// responder then write their raw values.
func (r *ExcludeRules) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.Match(c.Request.URL.Path) {
			c.Set(excludedKey, true)
		}
		c.Next()
	}
}

// IsExcluded reports whether ExcludeRules marked the request.
func IsExcluded(c *gin.Context) bool {
	v, _ := c.Get(excludedKey)
	b, _ := v.(bool)
	return b
}
