package service

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"restproxy/internal/model"
)

func encodeBody(t *testing.T, coding string, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	var w io.WriteCloser
	switch coding {
	case "gzip":
		w = gzip.NewWriter(&buf)
	case "zlib":
		w = zlib.NewWriter(&buf)
	case "raw-deflate":
		fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
		if err != nil {
			t.Fatalf("flate.NewWriter: %v", err)
		}
		w = fw
	default:
		return data
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("encode %s: %v", coding, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close %s: %v", coding, err)
	}
	return buf.Bytes()
}

func TestExecute_DecodesContentEncoding(t *testing.T) {
	payload := make([]byte, 2*model.ChunkSize+77)
	for i := range payload {
		payload[i] = byte((i * 7) % 13)
	}

	tests := []struct {
		name            string
		coding          string // how the upstream encodes the body
		contentEncoding string
		acceptEncoding  string // caller-supplied Accept-Encoding, empty for none
	}{
		{"gzip with caller Accept-Encoding", "gzip", "gzip", "gzip"},
		{"x-gzip alias", "gzip", "x-gzip", "gzip"},
		{"deflate zlib-wrapped", "zlib", "deflate", "deflate"},
		{"deflate raw", "raw-deflate", "deflate", "deflate"},
		{"gzip decoded by transport", "gzip", "gzip", ""},
		{"identity", "", "", "gzip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := encodeBody(t, tt.coding, payload)
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/octet-stream")
				if tt.contentEncoding != "" {
					w.Header().Set("Content-Encoding", tt.contentEncoding)
				}
				_, _ = w.Write(encoded)
			}))
			defer upstream.Close()

			env := `{"method":"GET","url":"` + upstream.URL + `"`
			if tt.acceptEncoding != "" {
				env += `,"headers":{"Accept-Encoding":"` + tt.acceptEncoding + `"}`
			}
			env += `}`

			buffered, err := NewExecutor(newCountingTransport(), mustParse(t, env, ""), discardLogger()).Execute(context.Background(), false)
			if err != nil {
				t.Fatalf("buffered Execute() error = %v", err)
			}
			streamed, err := NewExecutor(newCountingTransport(), mustParse(t, env, ""), discardLogger()).Execute(context.Background(), true)
			if err != nil {
				t.Fatalf("streaming Execute() error = %v", err)
			}

			if got := readAll(t, buffered); !bytes.Equal(got, payload) {
				t.Errorf("buffered body: got %d bytes, want the %d decoded bytes", len(got), len(payload))
			}
			if got := readAll(t, streamed); !bytes.Equal(got, payload) {
				t.Errorf("streamed body: got %d bytes, want the %d decoded bytes", len(got), len(payload))
			}
		})
	}
}

func TestExecute_UnknownCodingPassedThrough(t *testing.T) {
	raw := []byte("opaque-brotli-bytes")
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		_, _ = w.Write(raw)
	}))
	defer upstream.Close()

	env := `{"method":"GET","url":"` + upstream.URL + `","headers":{"Accept-Encoding":"br"}}`
	res, err := NewExecutor(newCountingTransport(), mustParse(t, env, ""), discardLogger()).Execute(context.Background(), false)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !bytes.Equal(res.Body, raw) {
		t.Errorf("Body = %q, want %q", res.Body, raw)
	}
}

func TestExecute_EncodedHeadHasEmptyBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	env := `{"method":"HEAD","url":"` + upstream.URL + `","headers":{"Accept-Encoding":"gzip"}}`
	for _, streaming := range []bool{false, true} {
		res, err := NewExecutor(newCountingTransport(), mustParse(t, env, ""), discardLogger()).Execute(context.Background(), streaming)
		if err != nil {
			t.Fatalf("Execute(streaming=%v) error = %v", streaming, err)
		}
		if got := readAll(t, res); len(got) != 0 {
			t.Errorf("streaming=%v: body = %q, want empty", streaming, got)
		}
	}
}

func TestExecute_CorruptGzipIsUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write([]byte("this is not gzip"))
	}))
	defer upstream.Close()

	env := `{"method":"GET","url":"` + upstream.URL + `","headers":{"Accept-Encoding":"gzip"}}`
	_, err := NewExecutor(newCountingTransport(), mustParse(t, env, ""), discardLogger()).Execute(context.Background(), false)

	var uerr *UpstreamError
	if !errors.As(err, &uerr) {
		t.Fatalf("error = %v (%T), want *UpstreamError", err, err)
	}
	if !errors.Is(err, gzip.ErrHeader) {
		t.Errorf("cause = %v, want gzip.ErrHeader", uerr.Cause())
	}
}

func TestDecodingBody_ClosesUpstream(t *testing.T) {
	body := &trackingBody{Reader: bytes.NewReader(encodeBody(t, "gzip", []byte("hello")))}
	resp := &http.Response{
		Header: http.Header{"Content-Encoding": {"gzip"}},
		Body:   body,
	}

	rc := decodeBody(resp)
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("decoded = %q, want %q", got, "hello")
	}
	if err := rc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !body.closed {
		t.Error("upstream body not closed")
	}
}

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}
