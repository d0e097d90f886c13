// Command aicoded runs the code review daemon as a standalone service
// process. It loads the default configuration and blocks until SIGINT or
// SIGTERM. The aicode CLI offers the same loop via `aicode daemon run`.
package main

import (
	"context"
	"log"

	"github.com/aidino/aicode-reviewer-sub001/internal/config"
	"github.com/aidino/aicode-reviewer-sub001/internal/daemonrun"
)

func main() {
	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{}); err != nil {
		log.Fatalf("run daemon: %v", err)
	}
}
