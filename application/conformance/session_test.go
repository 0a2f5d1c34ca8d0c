package conformance

import (
	"context"
	"testing"
	"time"

	"http-conformance/application/http"
	"http-conformance/application/http/failure"
	"http-conformance/application/util/rfc"
	"http-conformance/transport/pipe"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SessionTestSuite struct {
	suite.Suite

	clock   *clock.Mock
	network *pipe.Network
}

func TestSessionTestSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}

func (s *SessionTestSuite) SetupTest() {
	s.clock = clock.NewMock()
	s.network = pipe.NewNetwork(s.clock, pipe.DefaultBufSize)
}

func (s *SessionTestSuite) TestNewSession() {
	testcases := []struct {
		desc    string
		rawURL  string
		target  string
		secure  bool
		host    string
		wantErr error
	}{
		{desc: "http default port", rawURL: "http://example.com/a?b", target: "example.com:80", host: "example.com"},
		{desc: "https default port", rawURL: "https://example.com", target: "example.com:443", secure: true, host: "example.com"},
		{desc: "explicit port", rawURL: "HTTP://example.com:8080/", target: "example.com:8080", host: "example.com:8080"},
		{desc: "ftp scheme", rawURL: "ftp://example.com/", wantErr: ErrUnsupportedScheme},
		{desc: "no authority", rawURL: "http:relative/path", wantErr: ErrMissingAuthority},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			session, err := NewSession(tc.rawURL, s.network, discardLogger, s.clock, DefaultOptions)
			if tc.wantErr != nil {
				s.ErrorIs(err, tc.wantErr)
				return
			}

			s.Require().NoError(err)
			s.Equal(tc.target, session.Target().Address())
			s.Equal(tc.secure, session.Target().Secure)

			host, ok := session.NewRequest(http.MethodGet, "/").Headers.Get("Host")
			s.True(ok)
			s.Equal(tc.host, host)
		})
	}
}

func (s *SessionTestSuite) TestNewSessionMalformedURL() {
	_, err := NewSession("example.com", s.network, discardLogger, s.clock, DefaultOptions)

	var v *rfc.Violation
	s.Require().True(errors.As(err, &v))
	s.Equal(rfc.RFC3986Sec1, v.Section)
}

func (s *SessionTestSuite) TestExchange() {
	serve(s.T(), s.network, conforming)
	session := newTestSession(s.T(), s.network, s.clock, DefaultOptions)

	res, err := session.Exchange(context.Background(), session.NewRequest(http.MethodGet, "/"), http.DefaultEncodeOptions)
	s.Require().NoError(err)

	s.Equal(uint(200), res.StatusCode)
	s.Equal([]byte("hello"), res.Body)
}

func (s *SessionTestSuite) TestExchangeSkipsInterim() {
	serve(s.T(), s.network, func(scriptedRequest) string {
		return "HTTP/1.1 100 Continue\r\n\r\n" +
			"HTTP/1.1 102 Processing\r\n\r\n" +
			"HTTP/1.1 204 No Content\r\n\r\n"
	})
	session := newTestSession(s.T(), s.network, s.clock, DefaultOptions)

	res, err := session.Exchange(context.Background(), session.NewRequest(http.MethodGet, "/"), http.DefaultEncodeOptions)
	s.Require().NoError(err)
	s.Equal(uint(204), res.StatusCode)
}

func (s *SessionTestSuite) TestExchangeViolation() {
	serve(s.T(), s.network, func(scriptedRequest) string {
		return "HTTP/1.1 200 OK\r\nX-Test : value\r\n\r\n"
	})
	session := newTestSession(s.T(), s.network, s.clock, DefaultOptions)

	_, err := session.Exchange(context.Background(), session.NewRequest(http.MethodGet, "/"), http.DefaultEncodeOptions)
	s.Require().Error(err)

	var v *rfc.Violation
	s.Require().True(errors.As(err, &v))
	s.Equal(rfc.RFC7230AppB, v.Section)
	s.Equal(http.StateHeaders.String(), v.State)
	s.Equal(failure.Conformance, failure.Classify(err))
}

func (s *SessionTestSuite) TestExchangeRefused() {
	session := newTestSession(s.T(), s.network, s.clock, DefaultOptions)

	_, err := session.Exchange(context.Background(), session.NewRequest(http.MethodGet, "/"), http.DefaultEncodeOptions)
	s.Error(err)
	s.Equal(Error, Judge(err))
}

func (s *SessionTestSuite) TestExchangeInvalidRequest() {
	serve(s.T(), s.network, conforming)
	session := newTestSession(s.T(), s.network, s.clock, DefaultOptions)

	_, err := session.Exchange(context.Background(), session.NewRequest("BAD METHOD", "/"), http.DefaultEncodeOptions)
	s.ErrorIs(err, http.ErrInvalidMethod)
}

func (s *SessionTestSuite) TestExchangeTimeout() {
	realClock := clock.New()
	network := pipe.NewNetwork(realClock, pipe.DefaultBufSize)
	serve(s.T(), network, func(scriptedRequest) string {
		// Never answers in time.
		time.Sleep(200 * time.Millisecond)
		return ""
	})

	opts := DefaultOptions
	opts.Timeout = 20 * time.Millisecond
	session := newTestSession(s.T(), network, realClock, opts)

	_, err := session.Exchange(context.Background(), session.NewRequest(http.MethodGet, "/"), http.DefaultEncodeOptions)
	s.Require().Error(err)
	s.Equal(failure.ConnectionLost, failure.Classify(err))
	s.Equal(Error, Judge(err))
}
