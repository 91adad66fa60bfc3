// Command dxapi calls the platform API from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	service "github.com/okian/dxapi/internal/app"
	"github.com/okian/dxapi/internal/config"
	"github.com/okian/dxapi/pkg/dxapi"
	"github.com/okian/dxapi/pkg/logger"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitAPIError = 3
)

var errBadInput = errors.New("bad input")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, newCLI(os.Stdin, os.Stdout, os.Stderr), os.Args[1:])
	stop()
	os.Exit(code)
}

// cli carries the streams and collaborators shared by the subcommands.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// loadConfig defaults to config.Load.
	loadConfig func(ctx context.Context) (*config.Config, error)
	// serviceOptions are appended after the options built from config.
	serviceOptions []service.Option

	cfg *config.Config
	svc *service.Service
}

func newCLI(stdin io.Reader, stdout, stderr io.Writer) *cli {
	return &cli{
		stdin:      stdin,
		stdout:     stdout,
		stderr:     stderr,
		loadConfig: config.Load,
	}
}

// run executes args and maps the outcome to an exit code.
func run(ctx context.Context, c *cli, args []string) int {
	root := c.rootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if c.svc != nil {
		c.svc.Stop()
	}
	if err == nil {
		return exitOK
	}

	var apiErr *dxapi.APIError
	switch {
	case errors.As(err, &apiErr):
		fmt.Fprintf(c.stderr, "API error %d", apiErr.StatusCode)
		if apiErr.Payload != nil {
			fmt.Fprintf(c.stderr, ": %s", compactJSON(apiErr.Payload))
		}
		fmt.Fprintln(c.stderr)
		return exitAPIError
	case errors.Is(err, dxapi.ErrUsage), errors.Is(err, errBadInput):
		fmt.Fprintln(c.stderr, "error:", err)
		return exitUsage
	default:
		fmt.Fprintln(c.stderr, "error:", err)
		return exitFailure
	}
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "dxapi",
		Short:         "Call the platform API by route name",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.AddCommand(c.routesCommand(), c.callCommand(), c.batchCommand())
	return root
}

// start loads configuration, sets up logging and starts the client service.
func (c *cli) start(ctx context.Context, extra ...service.Option) error {
	cfg, err := c.loadConfig(ctx)
	if err != nil {
		return err
	}
	c.cfg = cfg

	if err := logger.InitWithWriter(c.stderr, cfg.LogFormat); err != nil {
		return err
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts := []service.Option{service.WithConfig(cfg), service.WithLogger(log)}
	opts = append(opts, extra...)
	opts = append(opts, c.serviceOptions...)
	c.svc = service.New(opts...)
	if err := c.svc.Start(ctx); err != nil {
		return fmt.Errorf("start client: %w", err)
	}
	return nil
}
