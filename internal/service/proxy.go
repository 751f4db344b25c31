package service

import (
	"context"
	"log/slog"

	"restproxy/internal/model"
)

// ProxyService hands out one Executor per call over a shared Transport.
type ProxyService struct {
	transport Transport
	logger    *slog.Logger
}

// NewProxyService creates a ProxyService.
func NewProxyService(t Transport, logger *slog.Logger) *ProxyService {
	return &ProxyService{
		transport: t,
		logger:    logger.With("component", "proxy_service"),
	}
}

// Execute runs inst on a fresh Executor. See Executor.Execute.
func (s *ProxyService) Execute(ctx context.Context, inst *model.Instruction, streaming bool) (*model.Result, error) {
	s.logger.Debug("forwarding request",
		"method", inst.Method().String(),
		"url", redact(inst.URL()),
		"streaming", streaming,
	)
	return NewExecutor(s.transport, inst, s.logger).Execute(ctx, streaming)
}
