package apihttp

import (
	"net/http"
	"strings"
	"time"

	"cryptopredict/internal/logger"

	"github.com/gin-gonic/gin"
)

const (
	headerAccountType = "X-User-AccountType"
	headerUserID      = "X-User-Id"
	accountVIP        = "VIP"
)

// requestLogger logs every request at debug level.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		client := c.ClientIP()
		c.Next()
		dur := time.Since(start)
		status := c.Writer.Status()
		fullPath := path
		if query != "" {
			fullPath = path + "?" + query
		}
		logger.Debugf("[api] HTTP %s %s status=%d ip=%s dur=%s", method, fullPath, status, client, dur)
	}
}

// recovery answers panics with the generic 500 envelope and logs the detail.
func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		logger.Errorf("[api] panic on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		abortError(c, http.StatusInternalServerError, codeInternal, detailInternalError)
	})
}

// requireVIP rejects callers whose gateway-injected account type is not VIP.
func requireVIP(detail string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.TrimSpace(c.GetHeader(headerAccountType)) != accountVIP {
			logger.Warnf("[api] non-VIP access to %s user=%q account=%q",
				c.Request.URL.Path, c.GetHeader(headerUserID), c.GetHeader(headerAccountType))
			abortError(c, http.StatusForbidden, codeForbidden, detail)
			return
		}
		c.Next()
	}
}
