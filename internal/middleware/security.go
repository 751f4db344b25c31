package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// hopByHop lists the RFC 7230 connection-scoped headers plus the legacy
// Proxy-Connection. None of them describe the inbound proxy envelope.
var hopByHop = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

var responseHeaders = map[string]string{
	"X-Content-Type-Options": "nosniff",
	"X-Frame-Options":        "DENY",
}

// SecurityHeaders drops connection-scoped headers from the inbound request
// and stamps the response with nosniff/DENY.
//
// Response headers go on before the handler runs: a streamed relay commits
// its headers with the first chunk.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			stripHopByHop(c.Request().Header)

			out := c.Response().Header()
			for k, v := range responseHeaders {
				out.Set(k, v)
			}
			return next(c)
		}
	}
}

// stripHopByHop removes the fixed hop-by-hop set and any header the client
// nominated in its Connection header.
func stripHopByHop(h http.Header) {
	for _, v := range h.Values("Connection") {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				h.Del(name)
			}
		}
	}
	for _, name := range hopByHop {
		h.Del(name)
	}
}
