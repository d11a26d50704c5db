// Command shortlinkctl manages short links directly against the configured
// store, without going through the HTTP API.
package main

import (
	"context"
	"os"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
