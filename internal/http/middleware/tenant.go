package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// tenantKey is the Gin context key under which the resolved tenant is stored.
	tenantKey = "tenantID"
	// tenantHeader carries the caller-selected tenant namespace.
	tenantHeader = "X-Tenant-ID"
	// DefaultTenant is used when no X-Tenant-ID header is supplied.
	DefaultTenant = "public"
	// maxTenantLength bounds the accepted header value.
	maxTenantLength = 64
)

// tenantPattern restricts tenant identifiers to a safe slug alphabet.
var tenantPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Tenant resolves the tenant namespace for the request.
//
// Behavior:
//   - A missing or empty X-Tenant-ID header resolves to DefaultTenant.
//   - The value is lower-cased and must match ^[a-z0-9][a-z0-9_-]*$ with at
//     most 64 bytes; anything else is rejected with 400 invalid_tenant.
//   - The resolved tenant is stored in the Gin context under "tenantID" and
//     echoed on the response so clients can confirm the namespace used.
//
// Place this after RequestID() and before Logger() so access logs carry the
// tenant field.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(tenantHeader))
		if raw == "" {
			c.Set(tenantKey, DefaultTenant)
			c.Writer.Header().Set(tenantHeader, DefaultTenant)
			c.Next()
			return
		}
		id := strings.ToLower(raw)
		if len(id) > maxTenantLength || !tenantPattern.MatchString(id) {
			rid, _ := c.Get(requestIDKey)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": asString(rid),
				"code":       "invalid_tenant",
				"message":    "X-Tenant-ID must be a short lowercase slug",
			})
			return
		}
		c.Set(tenantKey, id)
		c.Writer.Header().Set(tenantHeader, id)
		c.Next()
	}
}

// TenantFrom returns the tenant resolved by Tenant(), or DefaultTenant when
// the middleware did not run. Handlers can call this without nil checks.
func TenantFrom(c *gin.Context) string {
	if v, ok := c.Get(tenantKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return DefaultTenant
}
