package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/okian/dxapi/internal/adapters/mq/queue"
	service "github.com/okian/dxapi/internal/app"
	"github.com/okian/dxapi/internal/domain/route"
	"github.com/okian/dxapi/pkg/dxapi"
	"github.com/spf13/cobra"
)

const maxBatchLine = 16 << 20

func (c *cli) routesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the known routes",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			table := route.Builtin()
			tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
			for _, name := range table.Names() {
				r, _ := table.Lookup(name)
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, r.Method, r.PathTemplate, r.Scope)
			}
			return tw.Flush()
		},
	}
}

type callFlags struct {
	alias       string
	input       string
	headers     []string
	timeout     time.Duration
	alwaysRetry bool
}

func (c *cli) callCommand() *cobra.Command {
	var f callFlags
	cmd := &cobra.Command{
		Use:   "call <route> [ref]",
		Short: "Call one route and print the JSON response",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := c.readInput(f.input)
			if err != nil {
				return err
			}
			opts, err := f.callOptions()
			if err != nil {
				return err
			}
			var reference string
			if len(args) == 2 {
				reference = args[1]
			}

			ctx := cmd.Context()
			if err := c.start(ctx); err != nil {
				return err
			}
			resp, err := c.svc.Call(ctx, args[0], reference, f.alias, body, opts...)
			if err != nil {
				return err
			}
			return writeIndented(c.stdout, resp)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.alias, "alias", "", "App alias or version (app routes only)")
	flags.StringVar(&f.input, "input", "", "JSON request body, or - to read stdin")
	flags.StringArrayVar(&f.headers, "header", nil, "Extra request header as 'Key: Value' (repeatable)")
	flags.DurationVar(&f.timeout, "timeout", 0, "Timeout for the whole call, retries included")
	flags.BoolVar(&f.alwaysRetry, "always-retry", false, "Retry even routes that are not safe to retry")
	return cmd
}

func (f *callFlags) callOptions() ([]dxapi.CallOption, error) {
	var opts []dxapi.CallOption
	for _, h := range f.headers {
		key, value, ok := strings.Cut(h, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: header %q is not 'Key: Value'", errBadInput, h)
		}
		opts = append(opts, dxapi.WithHeader(key, strings.TrimSpace(value)))
	}
	if f.timeout > 0 {
		opts = append(opts, dxapi.WithTimeout(f.timeout))
	}
	if f.alwaysRetry {
		opts = append(opts, dxapi.WithAlwaysRetry())
	}
	return opts, nil
}

// readInput parses the --input value. Empty means no body.
func (c *cli) readInput(input string) (any, error) {
	raw := []byte(input)
	if input == "-" {
		var err error
		if raw, err = io.ReadAll(c.stdin); err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: --input is not JSON: %v", errBadInput, err)
	}
	return body, nil
}

// batchSpec is one input line of the batch command.
type batchSpec struct {
	Route string `json:"route"`
	Ref   string `json:"ref"`
	Alias string `json:"alias"`
	Input any    `json:"input"`
}

type batchLine struct {
	Index    int         `json:"index"`
	Response any         `json:"response,omitempty"`
	Error    *batchError `json:"error,omitempty"`
}

type batchError struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
	Payload    any    `json:"payload,omitempty"`
}

func (c *cli) batchCommand() *cobra.Command {
	var (
		workers int
		file    string
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run newline-delimited JSON calls concurrently",
		Long: `Reads one call per line as {"route": "...", "ref": "...", "alias": "...", "input": {...}}
and prints one result line per call in input order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := c.stdin
			if file != "" && file != "-" {
				fh, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("%w: %v", errBadInput, err)
				}
				defer fh.Close()
				in = fh
			}
			jobs, err := readBatch(in)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var extra []service.Option
			if workers > 0 {
				extra = append(extra, service.WithBatchWorkers(workers))
			}
			if err := c.start(ctx, extra...); err != nil {
				return err
			}
			results, err := c.svc.RunBatch(ctx, jobs)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(c.stdout)
			for _, res := range results {
				line := batchLine{Index: res.Index, Response: res.Response}
				if res.Err != nil {
					line.Error = describeError(res.Err)
				}
				if err := enc.Encode(line); err != nil {
					return err
				}
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&workers, "workers", 0, "Concurrent workers (default from config)")
	flags.StringVar(&file, "file", "-", "Input file, or - for stdin")
	return cmd
}

// readBatch parses call specs, skipping blank lines.
func readBatch(r io.Reader) ([]queue.Job, error) {
	var jobs []queue.Job
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxBatchLine)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var call batchSpec
		if err := json.Unmarshal(line, &call); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", errBadInput, lineNo, err)
		}
		jobs = append(jobs, queue.Job{Route: call.Route, Ref: call.Ref, Alias: call.Alias, Input: call.Input})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	return jobs, nil
}

func describeError(err error) *batchError {
	var apiErr *dxapi.APIError
	switch {
	case errors.As(err, &apiErr):
		return &batchError{Kind: "api", Message: err.Error(), StatusCode: apiErr.StatusCode, Payload: apiErr.Payload}
	case errors.Is(err, dxapi.ErrUsage):
		return &batchError{Kind: "usage", Message: err.Error()}
	default:
		return &batchError{Kind: "transport", Message: err.Error()}
	}
}

func writeIndented(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", out)
	return err
}

func compactJSON(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	out, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(out)
}
