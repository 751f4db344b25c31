package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var errHeadersNotObject = errors.New("headers must be a JSON object")

// Envelope keys read by ParseInstruction. Anything else is ignored.
const (
	keyMethod             = "method"
	keyURL                = "url"
	keyHeaders            = "headers"
	keyPayload            = "payload"
	keyDisablePassthrough = "disable_status_passthrough"
)

// Instruction describes one outbound call. It is immutable once built by
// ParseInstruction.
type Instruction struct {
	method      Method
	url         string
	header      http.Header
	payload     json.RawMessage
	passthrough bool
}

// ParseInstruction validates a proxy_request envelope and builds the
// Instruction for it. seedContentType is the inbound request's Content-Type and
// becomes the outbound Content-Type unless the envelope headers override it.
func ParseInstruction(envelope json.RawMessage, seedContentType string) (*Instruction, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(envelope, &fields); err != nil {
		return nil, &ValidationError{Msg: MsgProxyError, Err: err}
	}
	if fields == nil {
		return nil, &ValidationError{Msg: MsgProxyError}
	}

	rawMethod, hasMethod := fields[keyMethod]
	rawURL, hasURL := fields[keyURL]
	if !hasMethod || !hasURL {
		return nil, &ValidationError{Msg: MsgProxyError}
	}

	var name string
	if err := json.Unmarshal(rawMethod, &name); err != nil {
		return nil, &ValidationError{Msg: MsgUnsupportedMethod, Err: err}
	}
	method, ok := ParseMethod(name)
	if !ok {
		return nil, &ValidationError{Msg: MsgUnsupportedMethod}
	}

	var target string
	if err := json.Unmarshal(rawURL, &target); err != nil {
		return nil, &ValidationError{Msg: MsgProxyError, Err: err}
	}

	header, err := mergeHeaders(seedContentType, fields[keyHeaders])
	if err != nil {
		return nil, &ValidationError{Msg: MsgProxyError, Err: err}
	}

	inst := &Instruction{
		method:      method,
		url:         target,
		header:      header,
		passthrough: !truthy(fields[keyDisablePassthrough]),
	}
	if raw, ok := fields[keyPayload]; ok && !isNull(raw) {
		inst.payload = bytes.Clone(raw)
	}
	return inst, nil
}

// mergeHeaders seeds Content-Type from the inbound request and overlays the
// caller's headers on top.
func mergeHeaders(seedContentType string, raw json.RawMessage) (http.Header, error) {
	header := make(http.Header)
	if seedContentType != "" {
		header.Set("Content-Type", seedContentType)
	}
	if raw == nil || isNull(raw) {
		return header, nil
	}

	// Walk the object in document order: keys that differ only in case
	// canonicalize to one header, and the last one written wins.
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil {
		return nil, err
	} else if tok != json.Delim('{') {
		return nil, errHeadersNotObject
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, _ := tok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("header %q: %w", name, err)
		}
		header.Set(name, value)
	}
	return header, nil
}

// truthy applies JSON truthiness: false, null, 0, "" and empty containers are
// false; everything else is true.
func truthy(raw json.RawMessage) bool {
	if raw == nil {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return false
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Method returns the upstream method.
func (i *Instruction) Method() Method { return i.method }

// URL returns the upstream URL exactly as supplied.
func (i *Instruction) URL() string { return i.url }

// Header returns a copy of the merged outbound headers.
func (i *Instruction) Header() http.Header { return i.header.Clone() }

// StatusPassthrough reports whether the upstream status is relayed as is.
func (i *Instruction) StatusPassthrough() bool { return i.passthrough }

// HasPayload reports whether the outbound request carries a JSON body.
func (i *Instruction) HasPayload() bool { return i.payload != nil }

// Payload returns a copy of the raw JSON payload, or nil.
func (i *Instruction) Payload() json.RawMessage { return bytes.Clone(i.payload) }

// Body returns a fresh reader over the payload, or nil when there is none.
func (i *Instruction) Body() io.Reader {
	if i.payload == nil {
		return nil
	}
	return bytes.NewReader(i.payload)
}
