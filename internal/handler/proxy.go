package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"restproxy/internal/config"
	"restproxy/internal/metrics"
	"restproxy/internal/model"
	"restproxy/internal/service"
)

// proxyBody is the inbound JSON document accepted by POST /proxy/.
type proxyBody struct {
	ProxyRequest json.RawMessage `json:"proxy_request"`
}

// ProxyHandler turns proxy envelopes into upstream calls and relays the result.
type ProxyHandler struct {
	service   *service.ProxyService
	metrics   *metrics.Metrics
	logger    *slog.Logger
	streaming bool
}

// NewProxyHandler creates a ProxyHandler. The metrics parameter is optional.
func NewProxyHandler(svc *service.ProxyService, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service:   svc,
		metrics:   m,
		logger:    logger.With("component", "proxy_handler"),
		streaming: cfg.Proxy.Streaming(),
	}
}

// Handle parses the proxy_request envelope, performs the upstream call and
// writes the upstream response back to the caller.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()

	var body proxyBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		h.logger.Warn("invalid request body", "err", err, "path", req.URL.Path)
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid JSON body",
		})
	}

	inst, err := model.ParseInstruction(body.ProxyRequest, req.Header.Get(echo.HeaderContentType))
	if err != nil {
		return h.mapError(c, err)
	}

	res, err := h.service.Execute(req.Context(), inst, h.streaming)
	if err != nil {
		return h.mapError(c, err)
	}
	defer func() { _ = res.Close() }()

	h.relay(c, res)
	return nil
}

// relay writes status, content type and body. Once the status line is out,
// failures can only be logged: the caller sees a truncated body.
func (h *ProxyHandler) relay(c echo.Context, res *model.Result) {
	w := c.Response()
	if res.HasContentType {
		w.Header().Set(echo.HeaderContentType, res.ContentType)
	} else {
		// A nil entry stops net/http from sniffing one.
		w.Header()[echo.HeaderContentType] = nil
	}
	w.WriteHeader(res.StatusCode)

	if !res.Streaming() {
		n, err := w.Write(res.Body)
		if err != nil {
			h.logger.Error("writing response body", "err", err)
		}
		h.countBytes(metrics.ModeBuffer, n)
		return
	}

	var total int
	for chunk, err := range res.Stream.Chunks() {
		if err != nil {
			h.logger.Error("streaming response body", "err", err, "bytes_out", total)
			break
		}
		n, werr := w.Write(chunk)
		total += n
		if werr != nil {
			h.logger.Warn("client went away during stream", "err", werr, "bytes_out", total)
			break
		}
		w.Flush()
	}
	h.countBytes(metrics.ModeStream, total)
}

func (h *ProxyHandler) countBytes(mode string, n int) {
	if h.metrics != nil && n > 0 {
		h.metrics.RelayedBytes.WithLabelValues(mode).Add(float64(n))
	}
}

func (h *ProxyHandler) mapError(c echo.Context, err error) error {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		h.logger.Warn("rejected proxy instruction",
			"err", verr.Error(),
			"path", c.Request().URL.Path,
		)
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": verr.Error(),
		})
	}

	// The executor has already logged the transport cause.
	var uerr *service.UpstreamError
	if errors.As(err, &uerr) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": uerr.Error(),
		})
	}

	h.logger.Error("proxy error", "err", err, "path", c.Request().URL.Path)
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": model.MsgProxyError,
	})
}
