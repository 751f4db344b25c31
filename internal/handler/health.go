package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"restproxy/internal/config"
	"restproxy/internal/model"
)

// Version is the build version, injected through fx.
type Version string

// statusReport is the /proxy/status document. It is fixed at startup.
type statusReport struct {
	Status    string   `json:"status"`
	Version   string   `json:"version"`
	RelayMode string   `json:"relay_mode"`
	ChunkSize int      `json:"chunk_size,omitempty"`
	Methods   []string `json:"methods"`
}

// HealthHandler answers liveness checks and reports how the proxy relays.
type HealthHandler struct {
	status statusReport
}

// NewHealthHandler builds the status report from cfg. Chunk size is only
// reported when bodies are streamed.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	st := statusReport{
		Status:    "ok",
		Version:   string(v),
		RelayMode: config.RelayBuffer,
		Methods:   model.Methods(),
	}
	if cfg.Proxy.Streaming() {
		st.RelayMode = config.RelayStream
		st.ChunkSize = model.ChunkSize
	}
	return &HealthHandler{status: st}
}

// Healthz is the liveness endpoint.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Status serves the report built at startup.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.status)
}
