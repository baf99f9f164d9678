package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// DecodeJSON reads a size-limited JSON body and rejects unknown fields and trailing data.
func DecodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, MaxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if decoder.More() {
		return errors.New("invalid request body: unexpected trailing data")
	}
	return nil
}

// ParseDate parses an optional YYYY-MM-DD value at midnight in loc.
func ParseDate(value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return &t, nil
}

// ParseDateRange parses inclusive from/to dates. The returned upper bound is exclusive (start of the day after to).
func ParseDateRange(from, to string, loc *time.Location) (*time.Time, *time.Time, error) {
	start, err := ParseDate(from, loc)
	if err != nil {
		return nil, nil, err
	}
	end, err := ParseDate(to, loc)
	if err != nil {
		return nil, nil, err
	}
	if end != nil {
		next := end.AddDate(0, 0, 1)
		end = &next
	}
	return start, end, nil
}

// ClientIP returns the remote address without port.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
