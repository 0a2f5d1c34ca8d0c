package conformance

import (
	"time"

	"http-conformance/application/http"
)

type Options struct {
	// Timeout bounds one exchange: dial, request and response.
	Timeout time.Duration

	// Parallelism bounds how many cases run at once. Zero means one.
	Parallelism uint

	Decode http.DecodeOptions

	// UserAgent is sent with every well-formed request. Empty omits the field.
	UserAgent string
}

var DefaultOptions = Options{
	Timeout:     10 * time.Second,
	Parallelism: 4,
	Decode:      http.DefaultDecodeOptions,
	UserAgent:   "http-conformance/1.0",
}
