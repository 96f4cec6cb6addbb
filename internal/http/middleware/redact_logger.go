// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// RedactingLogger logs request metadata with obvious PII scrubbed first.
// Quiz answers describe real gift recipients, so request and response bodies
// are never logged, and emails, phone numbers and UUID-shaped identifiers
// are stripped from query strings and header values before they reach the
// log stream. Scrubbing shrinks the blast radius of a leaked log, it does
// not make logging PII safe; clients should still keep identifiers out of
// query strings where they can.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// UUIDs must be scrubbed before phone numbers: the phone pattern is loose
// enough to match the digit runs inside a UUID.
var (
	reUUID  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	reEmail = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	rePhone = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

func scrubPII(s string) string {
	if s == "" {
		return s
	}
	s = reUUID.ReplaceAllString(s, "[REDACTED:id]")
	s = reEmail.ReplaceAllString(s, "[REDACTED:email]")
	s = rePhone.ReplaceAllString(s, "[REDACTED:phone]")
	return s
}

// RedactOptions lists extra header names to mask entirely, merged with the
// built-in set (Authorization, Cookie, Set-Cookie, X-User-ID). Matching is
// case-insensitive.
type RedactOptions struct {
	MaskHeaders []string
}

// RedactingLogger returns middleware that emits one structured zerolog line
// per request: method, path, scrubbed query, scrubbed headers, status, size
// and latency. Masked headers log as "[REDACTED]"; everything else passes
// through scrubPII. The line is logged at info, warn for 4xx, error for 5xx.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	masked := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
		"x-user-id":     {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		safeQuery := scrubPII(c.Request.URL.RawQuery)

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := masked[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = scrubPII(strings.Join(vv, ", "))
		}

		c.Next()

		reqID := c.Writer.Header().Get("X-Request-ID")
		if reqID == "" {
			reqID = c.GetHeader("X-Request-ID")
		}

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}

		ev.
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", safeQuery).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}
