package service

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"io"
	"net/http"
	"strings"
)

// decodeBody returns the upstream body with its content coding removed.
//
// http.Transport only decodes gzip when it added Accept-Encoding itself. A
// caller that sends its own Accept-Encoding gets the encoded bytes back, and
// since only Content-Type is relayed they would reach the caller
// undecodable. Codings other than gzip and deflate, and stacked codings, are
// passed through untouched.
func decodeBody(resp *http.Response) io.ReadCloser {
	if resp.Uncompressed {
		return resp.Body
	}
	vals := resp.Header.Values("Content-Encoding")
	if len(vals) != 1 {
		return resp.Body
	}
	switch enc := strings.ToLower(strings.TrimSpace(vals[0])); enc {
	case "gzip", "x-gzip", "deflate":
		return &decodingBody{body: resp.Body, coding: enc}
	}
	return resp.Body
}

// decodingBody opens its decompressor on the first Read, so bodiless
// responses (HEAD, 204, 304) that still advertise a coding read as empty.
type decodingBody struct {
	body   io.ReadCloser
	coding string
	r      io.Reader
	err    error
}

func (d *decodingBody) Read(p []byte) (int, error) {
	if d.r == nil && d.err == nil {
		d.r, d.err = d.open()
	}
	if d.err != nil {
		return 0, d.err
	}
	return d.r.Read(p)
}

func (d *decodingBody) open() (io.Reader, error) {
	br := bufio.NewReader(d.body)
	head, err := br.Peek(2)
	if len(head) == 0 && errors.Is(err, io.EOF) {
		return http.NoBody, nil
	}

	switch {
	case d.coding != "deflate":
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		return zr, nil
	case len(head) == 2 && isZlibHeader(head[0], head[1]):
		zr, err := zlib.NewReader(br)
		if err != nil {
			return nil, err
		}
		return zr, nil
	default:
		// "deflate" should be zlib-wrapped, but raw DEFLATE is common.
		return flate.NewReader(br), nil
	}
}

func isZlibHeader(cmf, flg byte) bool {
	return cmf&0x0f == 8 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}

func (d *decodingBody) Close() error {
	if c, ok := d.r.(io.Closer); ok {
		_ = c.Close()
	}
	return d.body.Close()
}
