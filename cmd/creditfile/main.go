package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, &cli{}, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		cancel()
		os.Exit(1)
	}
}

// run executes the command line. The log file opened during setup is
// closed even when the command fails.
func run(ctx context.Context, c *cli, args []string, stdout, stderr io.Writer) (err error) {
	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	defer func() {
		if cerr := c.close(); err == nil {
			err = cerr
		}
	}()
	return root.ExecuteContext(ctx)
}
