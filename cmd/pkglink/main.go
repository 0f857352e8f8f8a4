package main

import (
	"os"

	"github.com/danieljhkim/pkglink/internal/cli"
)

var version = "dev"

func main() {
	cli.SetVersion(version)
	os.Exit(cli.Execute())
}
