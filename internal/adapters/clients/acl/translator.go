package acl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/quotebook/internal/adapters/clients"
	"github.com/jsamuelsen/quotebook/internal/domain"
)

// ErrDropped is returned by a Translator for records that carry nothing the
// domain can use. TranslateSlice skips them.
var ErrDropped = errors.New("record dropped")

// BaseAdapter holds what every remote adapter needs: the HTTP client and the
// name used in domain errors.
type BaseAdapter struct {
	client      *clients.Client
	serviceName string
}

// NewBaseAdapter creates a base adapter. An empty serviceName falls back to
// the client's own.
func NewBaseAdapter(client *clients.Client, serviceName string) BaseAdapter {
	if serviceName == "" {
		serviceName = client.ServiceName()
	}

	return BaseAdapter{client: client, serviceName: serviceName}
}

// Client returns the underlying HTTP client.
func (a *BaseAdapter) Client() *clients.Client {
	return a.client
}

// ServiceName returns the name of the remote.
func (a *BaseAdapter) ServiceName() string {
	return a.serviceName
}

// Get performs a GET and returns the body of a 2xx response; the caller
// closes it. Failures are mapped to *domain.SyncError.
func (a *BaseAdapter) Get(ctx context.Context, path, operation string) (io.ReadCloser, error) {
	resp, err := a.client.Get(ctx, path)

	return a.checkResponse(resp, err, operation)
}

// PostJSON posts payload as JSON and returns the body of a 2xx response.
func (a *BaseAdapter) PostJSON(ctx context.Context, path string, payload any, operation string) (io.ReadCloser, error) {
	resp, err := a.client.PostJSON(ctx, path, payload)

	return a.checkResponse(resp, err, operation)
}

func (a *BaseAdapter) checkResponse(resp *http.Response, err error, operation string) (io.ReadCloser, error) {
	if err != nil {
		return nil, MapHTTPError(nil, err, a.serviceName, operation)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		defer func() { _ = resp.Body.Close() }()

		return nil, MapHTTPError(resp, nil, a.serviceName, operation)
	}

	return resp.Body, nil
}

// DecodeResponse decodes a JSON body into T and closes it. The body must hold
// exactly one non-null JSON value. Anything else yields a *domain.ParseError
// naming source.
func DecodeResponse[T any](body io.ReadCloser, source string) (T, error) {
	var result T

	if body == nil {
		return result, domain.NewParseError(source, "response body is empty", nil)
	}
	defer func() { _ = body.Close() }()

	raw, err := io.ReadAll(body)
	if err != nil {
		return result, domain.NewParseError(source, "reading response failed", err)
	}

	raw = bytes.TrimSpace(raw)

	switch {
	case len(raw) == 0:
		return result, domain.NewParseError(source, "response body is empty", nil)
	case bytes.Equal(raw, []byte("null")):
		return result, domain.NewParseError(source, "response is null", nil)
	}

	// Unmarshal, unlike a Decoder, rejects data after the first value.
	if err := json.Unmarshal(raw, &result); err != nil {
		return result, domain.NewParseError(source, "response does not match the expected shape", err)
	}

	return result, nil
}

// Translator converts one remote record into a domain value.
// Returning ErrDropped skips the record; any other error aborts the batch.
type Translator[External any, Domain any] func(ext *External) (Domain, error)

// TranslateSlice applies translate to every item in order and collects the
// results. Dropped records are counted, not returned.
func TranslateSlice[E any, D any](items []E, translate Translator[E, D]) ([]D, int, error) {
	result := make([]D, 0, len(items))
	dropped := 0

	for i := range items {
		translated, err := translate(&items[i])
		if errors.Is(err, ErrDropped) {
			dropped++
			continue
		}

		if err != nil {
			return nil, dropped, fmt.Errorf("translating item %d: %w", i, err)
		}

		result = append(result, translated)
	}

	return result, dropped, nil
}
