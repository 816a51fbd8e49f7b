// Package model defines shared types for the proxy.
package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ProxyRequest represents a client request to be forwarded upstream.
type ProxyRequest struct {
	Ctx         context.Context
	Method      string
	Path        string // escaped path suffix captured after /api/
	Query       string // raw query string, forwarded unmodified
	Header      http.Header
	ContentType string
	Body        Body
}

// ProxyResult is the upstream response, fully buffered, to be relayed verbatim.
type ProxyResult struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Body is the outbound request body. It is either a StructuredBody or a RawBody.
type Body interface {
	// Reader returns the encoded bytes to send upstream, or nil for an empty body.
	Reader() (io.Reader, error)
	isBody()
}

// StructuredBody holds a decoded JSON document that is re-encoded on the way out.
type StructuredBody struct {
	Value any
}

// RawBody holds bytes that are forwarded unchanged.
type RawBody struct {
	Data []byte
}

func (StructuredBody) isBody() {}
func (RawBody) isBody()        {}

// Reader encodes the value as compact JSON.
func (b StructuredBody) Reader() (io.Reader, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(b.Value); err != nil {
		return nil, fmt.Errorf("encode json body: %w", err)
	}
	// Encoder appends a newline.
	return bytes.NewReader(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// Reader returns the raw bytes, or nil when there are none.
func (b RawBody) Reader() (io.Reader, error) {
	if len(b.Data) == 0 {
		return nil, nil
	}
	return bytes.NewReader(b.Data), nil
}

// ErrMalformedJSON is returned by NewBody when a JSON body cannot be decoded.
var ErrMalformedJSON = errors.New("malformed JSON body")

// NewBody selects the body variant for a request. JSON media types with a
// non-empty payload are decoded into a StructuredBody; everything else is raw.
func NewBody(contentType string, data []byte) (Body, error) {
	if !IsJSON(contentType) || len(bytes.TrimSpace(data)) == 0 {
		return RawBody{Data: data}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after document", ErrMalformedJSON)
	}

	return StructuredBody{Value: v}, nil
}

// IsJSON reports whether the content type denotes a JSON payload. Any media
// type containing application/json qualifies, parameters included.
func IsJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}
