package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feral-file/ff-burn-mint/internal/cli"
	"github.com/feral-file/ff-burn-mint/internal/logger"
)

func main() {
	// First signal cancels the run: in-flight submissions finish recording, unstarted work stays pending
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	logger.Sync()
	logger.Flush(2 * time.Second)
	os.Exit(cli.GetExitCode(err))
}
