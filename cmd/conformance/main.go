// Conformance checks an HTTP/1.1 origin server against RFC 7230/7231.
//
//	conformance [-timeout d] [-parallel n] [-run regexp] [-insecure] [-v] URL
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"regexp"

	"http-conformance/application/conformance"
	"http-conformance/transport/tcp"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

const (
	exitConforming = 0
	exitFailed     = 1
	exitUsage      = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type config struct {
	opts     conformance.Options
	pattern  *regexp.Regexp
	insecure bool
	verbose  bool
	list     bool
	url      string
}

var errUsage = errors.New("usage: conformance [flags] URL")

func parseArgs(args []string, stderr io.Writer) (config, error) {
	cfg := config{opts: conformance.DefaultOptions}

	fs := flag.NewFlagSet("conformance", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		run      string
		parallel uint
	)
	fs.DurationVar(&cfg.opts.Timeout, "timeout", conformance.DefaultOptions.Timeout, "time limit of one exchange")
	fs.UintVar(&parallel, "parallel", conformance.DefaultOptions.Parallelism, "cases run at once")
	fs.StringVar(&run, "run", "", "run only cases whose ID matches `regexp`")
	fs.BoolVar(&cfg.insecure, "insecure", false, "skip TLS certificate verification")
	fs.BoolVar(&cfg.verbose, "v", false, "log every exchange")
	fs.BoolVar(&cfg.list, "list", false, "list cases and exit")
	fs.BoolVar(&cfg.opts.Decode.AllowSoleLF, "allow-sole-lf", false, "accept LF without CR as line terminator")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	cfg.opts.Parallelism = parallel

	if run != "" {
		pattern, err := regexp.Compile(run)
		if err != nil {
			return config{}, errors.Wrap(err, "compiling -run")
		}
		cfg.pattern = pattern
	}

	if cfg.list {
		return cfg, nil
	}
	if fs.NArg() != 1 {
		return config{}, errUsage
	}
	cfg.url = fs.Arg(0)

	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := parseArgs(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, err)
		}
		return exitUsage
	}

	cases := conformance.Builtin().Select(cfg.pattern)
	if cfg.list {
		for _, tc := range cases {
			fmt.Fprintf(stdout, "%-20s %s\n", tc.ID, tc.Description)
		}
		return exitConforming
	}

	level := slog.LevelWarn
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	clk := clock.New()

	dialOpts := tcp.DefaultDialOptions
	dialOpts.Timeout = cfg.opts.Timeout
	dialOpts.InsecureSkipVerify = cfg.insecure
	dialer := tcp.NewDialer(clk, logger, dialOpts)

	session, err := conformance.NewSession(cfg.url, dialer, logger, clk, cfg.opts)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	if len(cases) == 0 {
		fmt.Fprintln(stderr, "no case matches -run")
		return exitUsage
	}

	report := conformance.NewRunner(logger, clk, cfg.opts).Run(ctx, session, cases)
	if _, err := report.WriteTo(stdout); err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailed
	}

	if !report.Conforming() {
		return exitFailed
	}
	return exitConforming
}
