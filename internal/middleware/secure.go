package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"

	"github.com/noah-isme/pda-bills-api/pkg/config"
)

// Secure applies standard security headers. Host and SSL checks are only
// enforced in production.
func Secure(cfg config.SecurityConfig, env string) gin.HandlerFunc {
	production := env == config.EnvProduction
	sec := secure.New(secure.Options{
		AllowedHosts:          cfg.AllowedHosts,
		SSLRedirect:           cfg.SSLRedirect && production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		STSSeconds:            31536000,
		STSIncludeSubdomains:  true,
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline'",
		IsDevelopment:         !production,
	})

	return func(c *gin.Context) {
		if err := sec.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		if status := c.Writer.Status(); status > 300 && status < 399 {
			c.Abort()
			return
		}
		c.Next()
	}
}
