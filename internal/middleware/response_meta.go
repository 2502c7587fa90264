package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const metaContextKey = "response_meta"

// Meta keys written into the response envelope.
const (
	MetaCacheHit       = "cache_hit"
	MetaProcessingTime = "processing_time_ms"
)

// WithResponseMeta prepares a per-request metadata map and stamps the processing time after the handler runs.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(metaContextKey, map[string]interface{}{})
		c.Next()
		meta := metaFor(c)
		if _, ok := meta[MetaProcessingTime]; !ok {
			meta[MetaProcessingTime] = time.Since(start).Milliseconds()
		}
	}
}

// SetCacheHit records whether the payload came from the aggregate cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, MetaCacheHit, hit)
}

// SetMeta stores one metadata entry for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	metaFor(c)[key] = value
}

// ExtractMeta returns the metadata stored on the context, or nil when none was prepared.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	value, ok := c.Get(metaContextKey)
	if !ok {
		return nil
	}
	meta, _ := value.(map[string]interface{})
	return meta
}

func metaFor(c *gin.Context) map[string]interface{} {
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	meta := make(map[string]interface{})
	if c != nil {
		c.Set(metaContextKey, meta)
	}
	return meta
}
