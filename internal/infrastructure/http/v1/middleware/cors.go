package middleware

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS lets browser dashboards read the API. Listed origins are always
// honoured; with no list any origin is allowed outside production and
// none in production.
func CORS(origins []string, production bool) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	switch {
	case len(origins) > 0:
		cfg.AllowOrigins = origins
	case production:
		return func(c *gin.Context) { c.Next() }
	default:
		cfg.AllowAllOrigins = true
	}
	cfg.AllowMethods = []string{http.MethodGet, http.MethodHead, http.MethodOptions}
	cfg.AddAllowHeaders(HeaderRequestID)
	cfg.AddExposeHeaders(HeaderRequestID, HeaderTraceID)

	return cors.New(cfg)
}
