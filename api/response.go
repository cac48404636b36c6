package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mitchellh/mapstructure"
	"google.golang.org/grpc/codes"
)

// Response is a custom response that wraps an HTTP response. Body will be
// populated with a buffer containing the response body, already read from the
// wire; the raw response is available for status and header inspection.
type Response struct {
	resp *http.Response

	Body *bytes.Buffer
	Map  map[string]any
}

func newResponse(resp *http.Response) (*Response, error) {
	ret := &Response{
		resp: resp,
		Body: new(bytes.Buffer),
	}
	if resp.Body != nil {
		defer resp.Body.Close()
		if _, err := ret.Body.ReadFrom(io.LimitReader(resp.Body, 64*1024*1024)); err != nil {
			return nil, fmt.Errorf("error reading response body: %w", err)
		}
	}
	return ret, nil
}

// HttpResponse returns the underlying HTTP response
func (r *Response) HttpResponse() *http.Response {
	return r.resp
}

// StatusCode returns the HTTP status code of the response
func (r *Response) StatusCode() int {
	return r.resp.StatusCode
}

// Decode interprets the response. On a 2xx response the body, if any, is
// decoded into target; an empty body on a 2xx (including 204 No Content, the
// normal shape for deletes) is success and leaves target untouched. This is
// deliberately driven by the status code: success is never inferred from the
// shape of a parse failure. On a non-2xx response the platform error body is
// decoded into an *Error with the original HTTP status and error code
// preserved; a missing or malformed error body still yields an *Error with
// the status filled in.
func (r *Response) Decode(target any) (*Error, error) {
	if r == nil || r.resp == nil {
		return nil, fmt.Errorf("nil response, cannot decode")
	}

	status := r.resp.StatusCode
	if status >= 400 {
		apiErr := &Error{}
		if r.Body.Len() > 0 {
			if err := json.Unmarshal(r.Body.Bytes(), apiErr); err != nil {
				apiErr.Message = r.Body.String()
			}
		}
		if apiErr.Status == 0 {
			apiErr.Status = status
		}
		if apiErr.Code == "" {
			apiErr.Code = codeFromStatus(status)
		}
		return apiErr, nil
	}

	if status == http.StatusNoContent || r.Body.Len() == 0 || target == nil {
		return nil, nil
	}

	r.Map = make(map[string]any)
	if err := json.Unmarshal(r.Body.Bytes(), &r.Map); err != nil {
		return nil, fmt.Errorf("error unmarshaling response body: %w", err)
	}

	if err := decodeMap(r.Map, target); err != nil {
		return nil, fmt.Errorf("error decoding response into target: %w", err)
	}

	return nil, nil
}

// DecodeItems decodes a list response into items, normalizing the three body
// shapes the platform produces for collection reads: a JSON array, an object
// with an "items" key, and -- for single-result lookups -- a bare object.
// Callers always get a list, no matter the result cardinality.
func (r *Response) DecodeItems(items any) (*Error, error) {
	if r == nil || r.resp == nil {
		return nil, fmt.Errorf("nil response, cannot decode")
	}

	if r.resp.StatusCode >= 400 {
		return r.Decode(nil)
	}

	if r.resp.StatusCode == http.StatusNoContent || r.Body.Len() == 0 {
		return nil, nil
	}

	var raw any
	if err := json.Unmarshal(r.Body.Bytes(), &raw); err != nil {
		return nil, fmt.Errorf("error unmarshaling response body: %w", err)
	}

	var list []any
	switch t := raw.(type) {
	case []any:
		list = t
	case map[string]any:
		r.Map = t
		if embedded, ok := t["items"]; ok {
			switch e := embedded.(type) {
			case []any:
				list = e
			case nil:
				// An explicit null items key means an empty result set
			default:
				list = []any{e}
			}
		} else if len(t) > 0 {
			list = []any{t}
		}
	case nil:
	default:
		return nil, fmt.Errorf("unexpected response body shape %T for a list call", raw)
	}

	if err := decodeMap(list, items); err != nil {
		return nil, fmt.Errorf("error decoding list response into target: %w", err)
	}

	return nil, nil
}

func decodeMap(in, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     target,
		TagName:    "json",
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

func codeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return codes.InvalidArgument.String()
	case http.StatusUnauthorized:
		return codes.Unauthenticated.String()
	case http.StatusForbidden:
		return codes.PermissionDenied.String()
	case http.StatusNotFound:
		return codes.NotFound.String()
	case http.StatusConflict:
		return codes.AlreadyExists.String()
	default:
		if status >= 500 {
			return codes.Internal.String()
		}
		return codes.Unknown.String()
	}
}
