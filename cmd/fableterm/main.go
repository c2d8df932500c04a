// fableterm is a terminal client for an AI-driven text adventure
// backend. It renders the menu, game generation, narrative cut-scene
// and in-game screens, and forwards player actions to the backend.
//
// Usage:
//
//	fableterm play            - Start the client
//	fableterm version         - Print the version
//
// Global flags:
//
//	--config <path>  - Path to a YAML config file
//	--api <url>      - Backend base URL (overrides config)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfig string
	flagAPI    string
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fableterm",
	Short: "Fableterm - AI text adventures in your terminal",
	Long: `Fableterm is a terminal client for an AI text-adventure backend.
It generates complete games from a prompt, then lets you play them:
explore scenes, talk and trade with characters, and steer the story
with free-text actions.

Examples:
  fableterm play
  fableterm play --api http://localhost:8080`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagAPI, "api", "", "Backend base URL")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(versionCmd)
}
