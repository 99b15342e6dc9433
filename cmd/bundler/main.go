// Command bundler packages the application with its packaging tool
package main

import (
	"os"

	"github.com/poltergeist/bundler/pkg/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
