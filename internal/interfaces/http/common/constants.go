package common

import "time"

const (
	// MaxRequestBody limits JSON request bodies.
	MaxRequestBody = 1 << 20
	// RequestTimeout bounds repository work of a single request.
	RequestTimeout = 5 * time.Second
	// ExportTimeout bounds spreadsheet exports, which read up to ExportLimit surveys.
	ExportTimeout = 60 * time.Second
	// DateLayout is the accepted format of from/to query parameters.
	DateLayout = "2006-01-02"
)
