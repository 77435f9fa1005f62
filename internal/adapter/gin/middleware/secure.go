package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
)

// SecureOptions configures the security header middleware.
type SecureOptions struct {
	AllowedHosts  []string // Empty allows any host
	IsDevelopment bool     // Disables host checks
}

// SecureHeaders returns a Gin middleware that sets browser hardening headers
// and rejects requests for hosts outside AllowedHosts.
func SecureHeaders(opts SecureOptions) gin.HandlerFunc {
	s := secure.New(secure.Options{
		AllowedHosts:          opts.AllowedHosts,
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		IsDevelopment:         opts.IsDevelopment,
	})

	return func(c *gin.Context) {
		// On failure secure has already written the response
		if err := s.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		c.Next()
	}
}
