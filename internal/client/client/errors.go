package client

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/dmitrijs2005/wellkeeper/internal/common"
	"github.com/tidwall/gjson"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotLoggedIn  = errors.New("not logged in")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Detail     string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s %s", k, e.Fields[k]))
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	return msg
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return common.ErrorNotFound
	}
	return nil
}

// parseAPIError reads the {message, error?, fields?} body the server sends
// with every failure. Bodies that are not JSON still yield an error.
func parseAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status}
	if !gjson.ValidBytes(body) {
		return e
	}

	res := gjson.ParseBytes(body)
	e.Message = res.Get("message").String()
	if validation := res.Get("fields"); validation.IsObject() {
		e.Fields = map[string]string{}
		validation.ForEach(func(k, v gjson.Result) bool {
			e.Fields[k.String()] = v.String()
			return true
		})
	} else {
		e.Detail = res.Get("error").String()
	}
	return e
}
