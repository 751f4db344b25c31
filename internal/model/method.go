// Package model defines the proxy instruction and result types shared by the
// service and handler layers.
package model

import "net/http"

// Method is an upstream HTTP method the proxy is willing to dispatch.
type Method uint8

// Supported upstream methods. The zero value is not a valid method.
const (
	MethodDelete Method = iota + 1
	MethodGet
	MethodHead
	MethodOptions
	MethodPatch
	MethodPost
	MethodPut
)

// ParseMethod maps an envelope method name onto a Method. Matching is exact:
// "get" is not "GET".
func ParseMethod(name string) (Method, bool) {
	switch name {
	case http.MethodDelete:
		return MethodDelete, true
	case http.MethodGet:
		return MethodGet, true
	case http.MethodHead:
		return MethodHead, true
	case http.MethodOptions:
		return MethodOptions, true
	case http.MethodPatch:
		return MethodPatch, true
	case http.MethodPost:
		return MethodPost, true
	case http.MethodPut:
		return MethodPut, true
	}
	return 0, false
}

// String returns the HTTP verb sent on the wire.
func (m Method) String() string {
	switch m {
	case MethodDelete:
		return http.MethodDelete
	case MethodGet:
		return http.MethodGet
	case MethodHead:
		return http.MethodHead
	case MethodOptions:
		return http.MethodOptions
	case MethodPatch:
		return http.MethodPatch
	case MethodPost:
		return http.MethodPost
	case MethodPut:
		return http.MethodPut
	}
	return "INVALID"
}

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	return m >= MethodDelete && m <= MethodPut
}

// Methods returns the wire names of every supported method.
func Methods() []string {
	out := make([]string, 0, int(MethodPut))
	for m := MethodDelete; m <= MethodPut; m++ {
		out = append(out, m.String())
	}
	return out
}
