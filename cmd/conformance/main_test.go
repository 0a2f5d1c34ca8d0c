package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	testcases := []struct {
		desc    string
		args    []string
		check   func(t *testing.T, cfg config)
		wantErr bool
	}{
		{
			desc: "defaults",
			args: []string{"http://example.com/"},
			check: func(t *testing.T, cfg config) {
				assert.Equal(t, "http://example.com/", cfg.url)
				assert.Equal(t, 10*time.Second, cfg.opts.Timeout)
				assert.Equal(t, uint(4), cfg.opts.Parallelism)
				assert.Nil(t, cfg.pattern)
				assert.False(t, cfg.insecure)
			},
		},
		{
			desc: "all flags",
			args: []string{"-timeout", "2s", "-parallel", "1", "-run", "^get", "-insecure", "-v", "-allow-sole-lf", "https://example.com"},
			check: func(t *testing.T, cfg config) {
				assert.Equal(t, 2*time.Second, cfg.opts.Timeout)
				assert.Equal(t, uint(1), cfg.opts.Parallelism)
				assert.True(t, cfg.pattern.MatchString("get-root"))
				assert.True(t, cfg.insecure)
				assert.True(t, cfg.verbose)
				assert.True(t, cfg.opts.Decode.AllowSoleLF)
			},
		},
		{
			desc: "list needs no URL",
			args: []string{"-list"},
			check: func(t *testing.T, cfg config) {
				assert.True(t, cfg.list)
			},
		},
		{desc: "missing URL", args: nil, wantErr: true},
		{desc: "two URLs", args: []string{"http://a/", "http://b/"}, wantErr: true},
		{desc: "bad regexp", args: []string{"-run", "(", "http://a/"}, wantErr: true},
		{desc: "unknown flag", args: []string{"-nope", "http://a/"}, wantErr: true},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			cfg, err := parseArgs(tc.args, io.Discard)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			tc.check(t, cfg)
		})
	}
}

func TestRunList(t *testing.T) {
	var stdout bytes.Buffer
	code := run(context.Background(), []string{"-list", "-run", "host"}, &stdout, io.Discard)

	assert.Equal(t, exitConforming, code)
	assert.Equal(t, 1, strings.Count(stdout.String(), "\n"))
	assert.Contains(t, stdout.String(), "missing-host")
}

func TestRunMalformedURL(t *testing.T) {
	var stderr bytes.Buffer
	code := run(context.Background(), []string{"example.com"}, io.Discard, &stderr)

	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "RFC 3986 §1")
}

func TestRunAgainstServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "2")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	_, port, err := net.SplitHostPort(server.Listener.Addr().String())
	require.NoError(t, err)

	var stdout bytes.Buffer
	code := run(context.Background(), []string{"-run", "^get-root$", "http://127.0.0.1:" + port + "/"}, &stdout, io.Discard)

	assert.Equal(t, exitConforming, code, stdout.String())
	assert.Contains(t, stdout.String(), "PASS  get-root")
	assert.Contains(t, stdout.String(), "1 passed, 0 failed")
}
