// Package test holds a behavioural suite every [transport.Conn] pair is
// expected to pass.
package test

import (
	"bytes"
	"io"
	"sync"
	"time"

	"http-conformance/transport"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

// ConnTestSuite runs against C1 and C2, two connected ends.
// Embedders set them in SetupTest after calling this SetupTest.
type ConnTestSuite struct {
	suite.Suite
	C1, C2 transport.Conn
	Clock  clock.Clock

	done  chan struct{}
	timer *time.Timer
}

func (s *ConnTestSuite) SetupTest() {
	s.done = make(chan struct{})
	s.Clock = clock.New()

	s.timer = time.AfterFunc(time.Second, func() {
		select {
		case <-s.done:
		default:
			s.FailNow("timeout exceeded")
		}
	})
}

func (s *ConnTestSuite) TearDownTest() {
	defer goleak.VerifyNone(s.T())
	s.NoError(s.C1.Close())
	s.NoError(s.C2.Close())
	close(s.done)
	s.timer.Stop()
}

func (s *ConnTestSuite) TestReadWrite() {
	data := []byte("Hello, World!")

	var wg sync.WaitGroup
	defer wg.Wait()
	wg.Add(2)

	go func() {
		defer wg.Done()
		n, err := s.C1.Write(data)
		s.Require().NoError(err)
		s.Equal(len(data), n)
	}()
	go func() {
		defer wg.Done()
		got := make([]byte, len(data))

		_, err := io.ReadFull(s.C2, got)
		s.Require().NoError(err)
		s.Equal(data, got)
	}()
}

func (s *ConnTestSuite) TestWriteRace() {
	data := []byte("ABCD")
	N := 10

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		result, err := io.ReadAll(s.C2)
		s.Require().NoError(err)
		s.Equal(bytes.Repeat(data, N), result)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		var wwg sync.WaitGroup
		for range N {
			wwg.Add(1)
			go func() {
				defer wwg.Done()
				n, err := s.C1.Write(data)
				s.Require().NoError(err)
				s.Equal(len(data), n)
			}()
		}
		wwg.Wait()
		s.Require().NoError(s.C1.Close())
	}()
}

func (s *ConnTestSuite) TestClose() {
	s.Require().NoError(s.C1.Close())

	buf := make([]byte, 10)

	n, err := s.C1.Read(buf)
	s.ErrorIs(err, transport.ErrConnClosed)
	s.Zero(n)

	n, err = s.C1.Write(buf)
	s.ErrorIs(err, transport.ErrConnClosed)
	s.Zero(n)

	n, err = s.C2.Read(buf)
	s.ErrorIs(err, io.EOF)
	s.Zero(n)

	n, err = s.C2.Write(buf)
	s.ErrorIs(err, transport.ErrConnClosed)
	s.Zero(n)
}

func (s *ConnTestSuite) TestReadAfterPeerClose() {
	data := []byte("response")

	n, err := s.C2.Write(data)
	s.Require().NoError(err)
	s.Require().Equal(len(data), n)

	s.Require().NoError(s.C2.Close())

	got, err := io.ReadAll(s.C1)
	s.NoError(err)
	s.Equal(data, got)
}

func (s *ConnTestSuite) TestReadBeforeClose() {
	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.C1.Read(make([]byte, 1))
		s.ErrorIs(err, transport.ErrConnClosed)
	}()

	time.Sleep(50 * time.Millisecond)
	s.Require().NoError(s.C1.Close())
}

// A buffered conn accepts writes up to its peer's buffer, so the input is
// made one byte bigger.
func makeInputForConn(conn transport.Conn) []byte {
	if c, ok := conn.(transport.BufferedConn); ok {
		return make([]byte, c.WriteBufSize()+1)
	}

	return []byte("hey")
}

func (s *ConnTestSuite) TestWriteBeforeClose() {
	input := makeInputForConn(s.C1)
	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.C1.Write(input)
		s.ErrorIs(err, transport.ErrConnClosed)
	}()

	time.Sleep(50 * time.Millisecond)
	s.Require().NoError(s.C1.Close())
}

func (s *ConnTestSuite) TestReadDeadLine() {
	s.C1.SetReadDeadLine(s.Clock.Now().Add(-time.Second))

	n, err := s.C1.Read(make([]byte, 1))
	s.ErrorIs(err, transport.ErrDeadLineExceeded)
	s.Zero(n)
}

func (s *ConnTestSuite) TestReadDeadLineWhileBlocked() {
	s.C1.SetReadDeadLine(s.Clock.Now().Add(20 * time.Millisecond))

	n, err := s.C1.Read(make([]byte, 1))
	s.ErrorIs(err, transport.ErrDeadLineExceeded)
	s.Zero(n)
}

func (s *ConnTestSuite) TestWriteDeadLine() {
	s.C1.SetWriteDeadLine(s.Clock.Now().Add(-time.Second))

	n, err := s.C1.Write(make([]byte, 1))
	s.ErrorIs(err, transport.ErrDeadLineExceeded)
	s.Zero(n)
}

func (s *ConnTestSuite) TestAddr() {
	local1, remote1 := s.C1.LocalAddr(), s.C1.RemoteAddr()
	local2, remote2 := s.C2.LocalAddr(), s.C2.RemoteAddr()

	s.Equal(local1, remote2)
	s.Equal(local2, remote1)
}
