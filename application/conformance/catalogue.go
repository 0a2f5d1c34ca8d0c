package conformance

import (
	"context"

	"http-conformance/application/http"
	"http-conformance/application/http/status"

	"github.com/pkg/errors"
)

// Builtin returns the catalogue shipped with the tool.
func Builtin() Catalogue {
	return Catalogue{
		{
			ID:          "get-root",
			Description: "GET in origin-form yields a conforming response",
			Run:         runGetRoot,
		},
		{
			ID:          "head-no-body",
			Description: "HEAD yields the status class of GET and no body",
			Run:         runHeadNoBody,
		},
		{
			ID:          "options-asterisk",
			Description: "OPTIONS * yields a conforming response with framing",
			Run:         runOptionsAsterisk,
		},
		{
			ID:          "http10-request",
			Description: "an HTTP/1.0 request is answered with major version 1",
			Run:         runHTTP10Request,
		},
		{
			ID:          "missing-host",
			Description: "an HTTP/1.1 request without Host is answered with 400",
			Run:         runMissingHost,
		},
		{
			ID:          "unknown-method",
			Description: "an unrecognized method is answered with 501 or 405",
			Run:         runUnknownMethod,
		},
		{
			ID:          "invalid-target",
			Description: "a request-target in no valid form is answered with 400",
			Run:         runInvalidTarget,
		},
		{
			ID:          "connect-authority",
			Description: "CONNECT in authority-form yields a conforming response",
			Run:         runConnectAuthority,
		},
		{
			ID:          "chunked-or-length",
			Description: "a response body is framed by Transfer-Encoding or Content-Length",
			Run:         runChunkedOrLength,
		},
		{
			ID:          "version-too-high",
			Description: "a request with major version 2 is answered with 505 or 400",
			Run:         runVersionTooHigh,
		},
	}
}

func runGetRoot(ctx context.Context, s *Session) error {
	_, err := s.Exchange(ctx, s.NewRequest(http.MethodGet, s.URI.CombinedPath()), http.DefaultEncodeOptions)
	return err
}

func runHeadNoBody(ctx context.Context, s *Session) error {
	target := s.URI.CombinedPath()

	get, err := s.Exchange(ctx, s.NewRequest(http.MethodGet, target), http.DefaultEncodeOptions)
	if err != nil {
		return errors.Wrap(err, "GET")
	}

	head, err := s.Exchange(ctx, s.NewRequest(http.MethodHead, target), http.DefaultEncodeOptions)
	if err != nil {
		return errors.Wrap(err, "HEAD")
	}

	if head.HasBody() {
		return expectationf("HEAD response has a body")
	}
	if get.StatusCode/100 != head.StatusCode/100 {
		return expectationf("HEAD answered %s while GET answered %s (RFC 7231 §4.3.2)",
			status.Describe(head.StatusCode), status.Describe(get.StatusCode))
	}

	return nil
}

func runOptionsAsterisk(ctx context.Context, s *Session) error {
	_, err := s.Exchange(ctx, s.NewRequest(http.MethodOptions, "*"), http.DefaultEncodeOptions)
	return err
}

func runHTTP10Request(ctx context.Context, s *Session) error {
	req := s.NewRequest(http.MethodGet, s.URI.CombinedPath())
	req.Version = http.Version10

	res, err := s.Exchange(ctx, req, http.DefaultEncodeOptions)
	if err != nil {
		return err
	}

	if res.Version[0] != 1 {
		return expectationf("answered with %s, want major version 1 (RFC 7230 §2.6)", res.Version)
	}
	return nil
}

func runMissingHost(ctx context.Context, s *Session) error {
	req := s.NewRequest(http.MethodGet, s.URI.CombinedPath())
	req.Headers = withoutField(req.Headers, "Host")

	res, err := s.Exchange(ctx, req, http.DefaultEncodeOptions)
	if err != nil {
		return err
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc7230#section-5.4
	return status.Expect(res.StatusCode, status.BadRequest.Code)
}

func runUnknownMethod(ctx context.Context, s *Session) error {
	res, err := s.Exchange(ctx, s.NewRequest("FROBNICATE", s.URI.CombinedPath()), http.DefaultEncodeOptions)
	if err != nil {
		return err
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc7231#section-4.1
	return status.Expect(res.StatusCode, status.NotImplemented.Code, status.MethodNotAllowed.Code)
}

func runInvalidTarget(ctx context.Context, s *Session) error {
	res, err := s.Exchange(ctx, s.NewRequest(http.MethodGet, "no-slash"), http.DefaultEncodeOptions)
	if err != nil {
		return err
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc7230#section-5.3
	return status.Expect(res.StatusCode, status.BadRequest.Code)
}

func runConnectAuthority(ctx context.Context, s *Session) error {
	req := s.NewRequest(http.MethodConnect, s.Target().Address())

	_, err := s.Exchange(ctx, req, http.DefaultEncodeOptions)
	return err
}

func runChunkedOrLength(ctx context.Context, s *Session) error {
	res, err := s.Exchange(ctx, s.NewRequest(http.MethodGet, s.URI.CombinedPath()), http.DefaultEncodeOptions)
	if err != nil {
		return err
	}

	if res.HasBody() || res.StatusCode == 204 || res.StatusCode == 304 {
		return nil
	}
	if !res.Headers.Contains("Content-Length") && !res.Headers.Contains("Transfer-Encoding") {
		return skipf("body of %s is delimited by connection close", status.Describe(res.StatusCode))
	}
	return nil
}

func runVersionTooHigh(ctx context.Context, s *Session) error {
	req := s.NewRequest(http.MethodGet, s.URI.CombinedPath())
	req.Version = http.Version{2, 0}

	res, err := s.Exchange(ctx, req, http.DefaultEncodeOptions)
	if err != nil {
		return err
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc7231#section-6.6.6
	return status.Expect(res.StatusCode, status.HTTPVersionNotSupported.Code, status.BadRequest.Code)
}

func withoutField(headers http.Headers, name string) http.Headers {
	out := make(http.Headers, 0, len(headers))
	for _, f := range headers {
		if f.Name != name {
			out = append(out, f)
		}
	}
	return out
}
