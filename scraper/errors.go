package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrTimeout wraps a page request that ran past its deadline.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string { return "page request timed out: " + e.Err.Error() }
func (e ErrTimeout) Unwrap() error { return e.Err }

// ErrConnection wraps a dial or socket failure; no response was received.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string { return "catalog host unreachable: " + e.Err.Error() }
func (e ErrConnection) Unwrap() error { return e.Err }

// ErrForbidden is a 403 from the catalog host.
type ErrForbidden struct {
	Err error
}

func (e ErrForbidden) Error() string { return "catalog page forbidden: " + e.Err.Error() }
func (e ErrForbidden) Unwrap() error { return e.Err }

// ErrNotFound is a 404; most catalogs answer it past their last page.
type ErrNotFound struct {
	Err error
}

func (e ErrNotFound) Error() string { return "catalog page missing: " + e.Err.Error() }
func (e ErrNotFound) Unwrap() error { return e.Err }

// ErrRateLimited is a 429 from the catalog host.
type ErrRateLimited struct {
	Err error
}

func (e ErrRateLimited) Error() string { return "catalog host throttled us: " + e.Err.Error() }
func (e ErrRateLimited) Unwrap() error { return e.Err }

// ErrStatus covers every other non-200 answer.
type ErrStatus struct {
	StatusCode int
}

func (e ErrStatus) Error() string {
	return fmt.Sprintf("catalog page answered http %d", e.StatusCode)
}

// fetchErrorLabels maps each typed failure to the label used in metrics and
// in CatalogResult.StopError. Order matters: the first match wins.
var fetchErrorLabels = []struct {
	label string
	match func(error) bool
}{
	{"timeout", func(err error) bool { var e ErrTimeout; return errors.As(err, &e) }},
	{"connection", func(err error) bool { var e ErrConnection; return errors.As(err, &e) }},
	{"forbidden", func(err error) bool { var e ErrForbidden; return errors.As(err, &e) }},
	{"not_found", func(err error) bool { var e ErrNotFound; return errors.As(err, &e) }},
	{"rate_limited", func(err error) bool { var e ErrRateLimited; return errors.As(err, &e) }},
	{"status", func(err error) bool { var e ErrStatus; return errors.As(err, &e) }},
}

// ErrorTypeLabel names the kind of a page fetch failure.
func ErrorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	for _, entry := range fetchErrorLabels {
		if entry.match(err) {
			return entry.label
		}
	}
	return "other"
}

// classifyError turns a transport error and/or final status code into one of
// the typed failures above. A nil error with status 200 stays nil.
func classifyError(err error, statusCode int) error {
	switch {
	case err == nil && (statusCode == 0 || statusCode == http.StatusOK):
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout{Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode == 0 || statusCode == http.StatusOK {
		return err
	}

	cause := err
	if cause == nil {
		cause = fmt.Errorf("http status %d", statusCode)
	}
	switch statusCode {
	case http.StatusForbidden:
		return ErrForbidden{Err: cause}
	case http.StatusNotFound:
		return ErrNotFound{Err: cause}
	case http.StatusTooManyRequests:
		return ErrRateLimited{Err: cause}
	}
	if err != nil {
		return err
	}
	return ErrStatus{StatusCode: statusCode}
}
