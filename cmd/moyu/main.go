// Command moyu reports how much of a group chat happens during working
// hours.
//
// Usage:
//
//	moyu report --input MSG.csv    Write the HTML report and charts
//	moyu stats --input MSG.csv     Print counters and the leaderboard
//	moyu browse --input MSG.csv    Explore the results in the terminal
//	moyu events                    JSONL event log viewer
//	moyu config init|show          Write or print the configuration
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
