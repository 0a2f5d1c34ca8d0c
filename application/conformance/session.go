package conformance

import (
	"context"
	"log/slog"

	"http-conformance/application/http"
	"http-conformance/application/util/uri"
	"http-conformance/transport"

	"github.com/benbjohnson/clock"
	"github.com/indigo-web/utils/strcomp"
	"github.com/pkg/errors"
)

var (
	ErrUnsupportedScheme = errors.New("scheme is neither http nor https")
	ErrMissingAuthority  = errors.New("URL has no authority")
)

// Session performs exchanges against one origin. Every exchange uses a
// fresh connection, so a session is safe for concurrent use.
type Session struct {
	URI    uri.URI
	target transport.Target

	dialer transport.ConnDialer
	logger *slog.Logger
	clock  clock.Clock
	opts   Options
}

// NewSession parses rawURL and prepares exchanges against its origin.
func NewSession(
	rawURL string,
	dialer transport.ConnDialer,
	logger *slog.Logger,
	clock clock.Clock,
	opts Options,
) (*Session, error) {
	u, err := uri.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing URL")
	}

	if !strcomp.EqualFold(u.Scheme, "http") && !strcomp.EqualFold(u.Scheme, "https") {
		return nil, errors.Wrapf(ErrUnsupportedScheme, "%q", u.Scheme)
	}
	if u.Authority == nil || u.Authority.Host == "" {
		return nil, errors.Wrap(ErrMissingAuthority, rawURL)
	}

	return &Session{
		URI: u,
		target: transport.Target{
			Host:   u.Host(),
			Port:   u.EffectivePort(),
			Secure: u.IsSecure(),
		},
		dialer: dialer,
		logger: logger.With(slog.String("origin", u.HostPort())),
		clock:  clock,
		opts:   opts,
	}, nil
}

func (s *Session) Target() transport.Target { return s.target }

// NewRequest builds a well-formed HTTP/1.1 request for target with the
// fields every case sends.
func (s *Session) NewRequest(method, target string) http.Request {
	req := http.Request{
		Method:  method,
		Target:  target,
		Version: http.Version11,
	}
	req.Headers.Add("Host", s.URI.HostPort())
	if s.opts.UserAgent != "" {
		req.Headers.Add("User-Agent", s.opts.UserAgent)
	}
	req.Headers.Add("Connection", "close")

	return req
}

// Exchange sends req over a new connection and parses the final response.
// Interim 1xx responses other than 101 are skipped.
func (s *Session) Exchange(ctx context.Context, req http.Request, encode http.EncodeOptions) (*http.Response, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = s.clock.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	conn, err := s.dialer.Dial(ctx, s.target)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", s.target)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadLine(deadline)
		conn.SetWriteDeadLine(deadline)
	}

	// Unblocks a pending read when the caller gives up.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	start := s.clock.Now()

	if err := http.NewRequestEncoder(conn, encode).Encode(req); err != nil {
		return nil, errors.Wrap(err, "sending request")
	}

	decoder := http.NewResponseDecoder(conn, s.opts.Decode)
	for {
		res, err := decoder.Decode(req.Method)
		if err != nil {
			return nil, errors.Wrap(err, "receiving response")
		}

		s.logger.Debug("exchanged",
			slog.String("request", req.Method+" "+req.Target),
			slog.Uint64("status", uint64(res.StatusCode)),
			slog.Int("headers", len(res.Headers)),
			slog.Int("body", len(res.Body)),
			slog.Duration("elapsed", s.clock.Since(start)),
		)

		if res.StatusCode >= 100 && res.StatusCode <= 199 && res.StatusCode != 101 {
			continue
		}

		return res, nil
	}
}
