package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	metaStartKey  = "meta_started_at"
	metaValuesKey = "meta_values"
	cacheHitKey   = "cache_hit"
)

// WithResponseMeta stamps the request start so ExtractMeta can report how
// long the handler took.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(metaStartKey, time.Now())
		c.Next()
	}
}

// SetCacheHit marks whether the payload was served from the roster cache.
func SetCacheHit(c *gin.Context, hit bool) {
	values(c)[cacheHitKey] = hit
}

// ExtractMeta returns the values recorded so far plus processing_time_ms.
// It returns nil when nothing is known about the request.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	meta := map[string]interface{}{}
	if stored, ok := c.Get(metaValuesKey); ok {
		for k, v := range stored.(map[string]interface{}) {
			meta[k] = v
		}
	}
	if start, ok := c.Get(metaStartKey); ok {
		meta["processing_time_ms"] = time.Since(start.(time.Time)).Milliseconds()
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

func values(c *gin.Context) map[string]interface{} {
	if stored, ok := c.Get(metaValuesKey); ok {
		return stored.(map[string]interface{})
	}
	m := map[string]interface{}{}
	c.Set(metaValuesKey, m)
	return m
}
