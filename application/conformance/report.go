package conformance

import (
	"fmt"
	"io"
	"strings"
	"time"
)

type Report struct {
	Target   string
	Results  []Result
	Duration time.Duration
}

type Totals struct {
	Pass, Fail, Error, Skip int
}

func (t Totals) Total() int { return t.Pass + t.Fail + t.Error + t.Skip }

func (r Report) Totals() Totals {
	var t Totals
	for _, result := range r.Results {
		switch result.Outcome {
		case Pass:
			t.Pass++
		case Fail:
			t.Fail++
		case Error:
			t.Error++
		case Skip:
			t.Skip++
		}
	}
	return t
}

// Conforming reports whether no case failed or errored.
func (r Report) Conforming() bool {
	t := r.Totals()
	return t.Fail == 0 && t.Error == 0
}

// WriteTo writes the report as aligned text, one line per case.
func (r Report) WriteTo(w io.Writer) (int64, error) {
	width := 0
	for _, result := range r.Results {
		width = max(width, len(result.Case.ID))
	}

	b := new(strings.Builder)
	fmt.Fprintf(b, "target %s\n", r.Target)
	for _, result := range r.Results {
		fmt.Fprintf(b, "%-5s %-*s %8s", result.Outcome, width, result.Case.ID, result.Duration.Round(time.Millisecond))
		if result.Err != nil {
			fmt.Fprintf(b, "  %s", result.Err)
		}
		b.WriteByte('\n')
	}

	t := r.Totals()
	fmt.Fprintf(b, "%d cases in %s: %d passed, %d failed, %d errored, %d skipped\n",
		t.Total(), r.Duration.Round(time.Millisecond), t.Pass, t.Fail, t.Error, t.Skip)

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
