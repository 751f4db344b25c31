// Package service implements the proxy executor: it performs the outbound
// call described by an Instruction and turns the upstream response into a
// Result.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"restproxy/internal/model"
)

const userAgent = "restproxy/1.0"

// Transport performs one outbound HTTP exchange. *client.UpstreamClient and
// *http.Client both satisfy it.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// State is the lifecycle stage of an Executor.
type State int32

const (
	StateIdle State = iota
	StateDispatched
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDispatched:
		return "dispatched"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Executor performs the single outbound call for one Instruction. It is not
// reusable: the second Execute returns ErrExecutorSpent.
type Executor struct {
	transport Transport
	inst      *model.Instruction
	logger    *slog.Logger
	state     atomic.Int32
}

// NewExecutor creates an idle Executor for inst.
func NewExecutor(t Transport, inst *model.Instruction, logger *slog.Logger) *Executor {
	return &Executor{
		transport: t,
		inst:      inst,
		logger:    logger,
	}
}

// State returns the current lifecycle stage.
func (e *Executor) State() State {
	return State(e.state.Load())
}

// Execute dispatches the call and builds the Result.
//
// With streaming false the whole upstream body is read into Result.Body. With
// streaming true Result.Stream holds the open upstream body and the caller
// must drain or Close it. Cancelling ctx aborts the call and any pending
// chunk read.
//
// Every transport failure is returned as *UpstreamError.
func (e *Executor) Execute(ctx context.Context, streaming bool) (*model.Result, error) {
	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateDispatched)) {
		return nil, ErrExecutorSpent
	}

	res, err := e.dispatch(ctx, streaming)
	if err != nil {
		e.state.Store(int32(StateFailed))
		e.logger.Error("upstream call failed",
			"method", e.inst.Method().String(),
			"url", redact(e.inst.URL()),
			"err", redact(err.Error()),
		)
		return nil, &UpstreamError{cause: err}
	}

	e.state.Store(int32(StateSucceeded))
	return res, nil
}

func (e *Executor) dispatch(ctx context.Context, streaming bool) (*model.Result, error) {
	req, err := e.newRequest(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := e.transport.Do(req)
	if err != nil {
		return nil, err
	}

	// Status and content type are taken before any body byte is read.
	res := e.resultHead(resp)
	body := decodeBody(resp)

	if streaming {
		res.Stream = model.NewChunkStream(body, model.ChunkSize)
		return res, nil
	}

	defer func() { _ = body.Close() }()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}
	res.Body = data
	return res, nil
}

// newRequest translates the instruction into an outbound request.
func (e *Executor) newRequest(ctx context.Context) (*http.Request, error) {
	method := e.inst.Method()
	if !method.Valid() {
		return nil, fmt.Errorf("build upstream request: invalid method %v", method)
	}

	req, err := http.NewRequestWithContext(ctx, method.String(), e.inst.URL(), e.inst.Body())
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}

	req.Header = e.inst.Header()
	// net/http never writes Header["Host"]; the wire value comes from req.Host.
	if host := req.Header.Get("Host"); host != "" {
		req.Host = host
		req.Header.Del("Host")
	}
	if e.inst.HasPayload() && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return req, nil
}

func (e *Executor) resultHead(resp *http.Response) *model.Result {
	res := &model.Result{StatusCode: http.StatusOK}
	if e.inst.StatusPassthrough() {
		res.StatusCode = resp.StatusCode
	}
	if vals := resp.Header.Values("Content-Type"); len(vals) > 0 {
		res.ContentType = vals[0]
		res.HasContentType = true
	}
	return res
}
