// Copyright (c) 2026 The Forgechain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"encoding/json"
	"io"
	"net/http"
)

type httpError struct {
	cause  error
	status int
}

func (e *httpError) Error() string {
	return e.cause.Error()
}

// HTTPError creates an error carrying an http status code.
func HTTPError(cause error, status int) error {
	return &httpError{cause: cause, status: status}
}

// BadRequest convenience method to create an http bad request error.
func BadRequest(cause error) error {
	return &httpError{cause: cause, status: http.StatusBadRequest}
}

// Forbidden convenience method to create an http forbidden error.
func Forbidden(cause error) error {
	return &httpError{cause: cause, status: http.StatusForbidden}
}

// NotFound convenience method to create an http not found error.
func NotFound(cause error) error {
	return &httpError{cause: cause, status: http.StatusNotFound}
}

// HandlerFunc like http.HandlerFunc, but it returns an error. If the
// returned error is an httpError its status is responded, otherwise
// http.StatusInternalServerError.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// WrapHandlerFunc converts a HandlerFunc to http.HandlerFunc.
func WrapHandlerFunc(f HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			if he, ok := err.(*httpError); ok {
				http.Error(w, he.cause.Error(), he.status)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

const jsonContentType = "application/json; charset=utf-8"

// ParseJSON parses a JSON object in strict mode.
func ParseJSON(r io.Reader, v interface{}) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteJSON responds an object in JSON encoding.
func WriteJSON(w http.ResponseWriter, obj interface{}) error {
	w.Header().Set("Content-Type", jsonContentType)
	return json.NewEncoder(w).Encode(obj)
}
