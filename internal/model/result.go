package model

// Result is the relayable form of an upstream response. Exactly one of Body
// and Stream is set.
type Result struct {
	StatusCode int

	// ContentType is the upstream Content-Type verbatim. HasContentType is
	// false when the upstream sent none.
	ContentType    string
	HasContentType bool

	Body   []byte
	Stream *ChunkStream
}

// Streaming reports whether the body is relayed chunk by chunk.
func (r *Result) Streaming() bool { return r.Stream != nil }

// Close releases the upstream connection held by a streaming result.
func (r *Result) Close() error {
	if r.Stream == nil {
		return nil
	}
	return r.Stream.Close()
}
