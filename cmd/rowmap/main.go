// Command rowmap inspects and edits the sample shop database through the
// rowmap entity manager.
package main

import (
	"os"

	"github.com/mesh-intelligence/rowmap/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
