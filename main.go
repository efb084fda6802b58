package main

import (
	"github.com/jonathanvouilloz/extensionReview/cmd"

	// Subcommands register themselves against the root command via init().
	_ "github.com/jonathanvouilloz/extensionReview/cmd/cli"
	_ "github.com/jonathanvouilloz/extensionReview/cmd/server"
)

func main() {
	cmd.Execute()
}
