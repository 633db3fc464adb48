package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"
	processingKey   = "processing_time_ms"
)

// WithResponseMeta gives each request a metadata map that handlers fill in
// and the response envelope echoes back.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
		meta := metaFor(c)
		if _, ok := meta[processingKey]; !ok {
			meta[processingKey] = time.Since(start).Milliseconds()
		}
	}
}

// SetCacheHit marks whether the payload came from the analytics cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, cacheHitKey, hit)
}

// SetMeta stores one metadata entry for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	metaFor(c)[key] = value
}

// ExtractMeta returns the metadata collected so far, or nil outside WithResponseMeta.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	value, ok := c.Get(responseMetaKey)
	if !ok {
		return nil
	}
	meta, _ := value.(map[string]interface{})
	return meta
}

func metaFor(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
