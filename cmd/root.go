package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathanvouilloz/extensionReview/internal/config"
)

// Cfg is the global variable that will contain the loaded configuration
// It will be accessible to all Cobra commands throughout the application
var Cfg *config.Config

// RootCmd is the base command for the CLI application
// All other commands (run-server, migrate, create-project, stats, sweep,
// gen-codes) are added as subcommands
var RootCmd = &cobra.Command{
	Use:   "feedback",
	Short: "A website feedback collection API",
	Long: `A feedback collection API for browser extensions: projects are
identified by unguessable short codes, visitors attach comments and
screenshots against them, and owners review everything over REST.`,
}

// Execute is the main entry point for the Cobra application
// It is called from 'main.go' and handles command execution and error handling
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

// init() sets up the configuration initialization hook. Subcommands register
// themselves via their own init() functions, which keeps the command files
// independent and avoids import cycles.
func init() {
	cobra.OnInitialize(initConfig)
}

// initConfig loads the application configuration before any command runs.
// A .env file, when present, feeds the environment-variable overrides.
func initConfig() {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment overrides from .env")
	}

	var err error
	Cfg, err = config.LoadConfig()
	if err != nil {
		log.Printf("Warning: Problem loading configuration: %v. Using default values.", err)
	}
}
