// Command stamper manages the document store from the command line and
// can run the HTTP service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(newApp()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
