package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iamNilotpal/tsidx/internal/serialize"
	"github.com/iamNilotpal/tsidx/pkg/errors"
	"github.com/iamNilotpal/tsidx/pkg/ipmath"
	"github.com/iamNilotpal/tsidx/pkg/logger"
	"go.uber.org/zap"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

type settings struct {
	opts   []ipmath.ExpandOption
	trim   int
	count  bool
	format string
}

// expansion is one input range and its covering list, as printed by the
// json and yaml formats.
type expansion struct {
	Range     string   `json:"range" yaml:"range"`
	CIDRs     []string `json:"cidrs" yaml:"cidrs"`
	Addresses *uint64  `json:"addresses,omitempty" yaml:"addresses,omitempty"`
}

// Reads "low high" or "low-high" ranges, one per line, from the arguments
// or stdin, and prints the covering CIDR list.
func main() {
	cleanSingle := flag.Bool("clean-single", false, "print single addresses without /32")
	expandSmaller := flag.Int("expand-smaller-than", 0, "enumerate blocks with a mask of at least this value (24-31)")
	trim := flag.Int("trim", -1, "replace blocks with a mask of at least this value by their network address")
	count := flag.Bool("count", false, "print the number of covered addresses")
	format := flag.String("format", formatText, "output format: text, json or yaml")
	flag.Parse()

	log, err := logger.New("cidr-expand", logger.Config{Level: "warn", Format: "console", OutputFile: "stderr"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	s := settings{trim: *trim, count: *count, format: *format}
	if *cleanSingle {
		s.opts = append(s.opts, ipmath.WithCleanSingleIPs())
	}
	if *expandSmaller != 0 {
		s.opts = append(s.opts, ipmath.WithExpandSmallerThan(*expandSmaller))
	}

	lines := flag.Args()
	if len(lines) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			log.Errorw("read stdin", "error", err)
			os.Exit(1)
		}
	}

	out := bufio.NewWriter(os.Stdout)
	failed, err := run(out, lines, s, func(line string, err error) { logError(log, line, err) })
	out.Flush()
	if err != nil {
		log.Errorw("write output", "format", s.format, "error", err)
		os.Exit(1)
	}
	if failed {
		log.Sync()
		os.Exit(1)
	}
}

// run expands every non-blank, non-comment line. Bad lines are reported
// through onError and do not stop the others; the returned error is an
// output failure.
func run(out io.Writer, lines []string, s settings, onError func(string, error)) (bool, error) {
	if s.format != formatText && s.format != formatJSON && s.format != formatYAML {
		return false, fmt.Errorf("unknown format %q", s.format)
	}

	failed := false
	results := make([]expansion, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		result, err := expand(line, s)
		if err != nil {
			onError(line, err)
			failed = true
			continue
		}
		results = append(results, result)
	}

	var (
		data []byte
		err  error
	)
	switch s.format {
	case formatJSON:
		data, err = serialize.MarshalJSON(results)
		data = append(data, '\n')
	case formatYAML:
		data, err = serialize.MarshalYAML(results)
	default:
		var b strings.Builder
		for _, r := range results {
			for _, entry := range r.CIDRs {
				fmt.Fprintln(&b, entry)
			}
			if r.Addresses != nil {
				fmt.Fprintf(&b, "# %d addresses\n", *r.Addresses)
			}
		}
		data = []byte(b.String())
	}
	if err != nil {
		return failed, err
	}

	_, err = out.Write(data)
	return failed, err
}

func expand(line string, s settings) (expansion, error) {
	low, high, ok := splitRange(line)
	if !ok {
		return expansion{}, fmt.Errorf("expected \"low high\" or \"low-high\"")
	}

	list, err := ipmath.RangeToCIDR(low, high, s.opts...)
	if err != nil {
		return expansion{}, err
	}

	result := expansion{Range: low + "-" + high}
	if s.count {
		n, err := ipmath.CountAddresses(list)
		if err != nil {
			return expansion{}, err
		}
		result.Addresses = &n
	}

	if s.trim >= 0 {
		if list, err = ipmath.TrimCIDRList(list, s.trim); err != nil {
			return expansion{}, err
		}
	}

	result.CIDRs = list
	return result, nil
}

func splitRange(line string) (string, string, bool) {
	if low, high, found := strings.Cut(line, "-"); found {
		return strings.TrimSpace(low), strings.TrimSpace(high), true
	}
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}

func logError(log *zap.SugaredLogger, line string, err error) {
	if verr := errors.AsValidationError(err); verr != nil {
		log.Errorw("invalid range", "line", line, "field", verr.Field, "value", verr.Value, "error", verr.Err)
		return
	}
	log.Errorw("invalid range", "line", line, "error", err)
}
