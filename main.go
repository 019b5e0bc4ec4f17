package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/OmerShlush/trustx-migration/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the trustx-migration command-line application. Interrupt and
// termination signals cancel the execution context so in-flight platform
// requests stop instead of leaving the destination tenant half-migrated.
func main() {
	executionContext, stopSignalHandling := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignalHandling()

	if executionError := cli.Execute(executionContext); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(1)
	}
}
