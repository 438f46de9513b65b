/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: errors.go
Description: Error taxonomy for the crawl-and-fuzz core. HTTP status failures, sentinels for
missing forms and controls, and helpers used by callers that treat 404 as a valid outcome.
*/

package web

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMalformedURL         = errors.New("malformed url")
	ErrMissingSubmitControl = errors.New("form has no submit control")
	ErrNoLoginForm          = errors.New("no login form found")
	ErrFormGone             = errors.New("form no longer present on page")
	ErrEngineNotStarted     = errors.New("browser engine not started")
)

// HTTPStatusError is returned when the final response status is >= 400
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsNotFound reports whether err is a 404-class HTTP failure (404 or 410)
func IsNotFound(err error) bool {
	var se *HTTPStatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == http.StatusNotFound || se.StatusCode == http.StatusGone
}

// IsHTTPStatus reports whether err carries an HTTP status failure
func IsHTTPStatus(err error) bool {
	var se *HTTPStatusError
	return errors.As(err, &se)
}
