package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the persistent build state",
	Long: `Delete the environment database and stored description bodies.
The next build re-reads every source document. Output pages are kept.`,
	Run: runClean,
}

func runClean(cmd *cobra.Command, args []string) {
	session, _ := newSession()

	if err := session.Clean(); err != nil {
		log.Fatalf("failed to clean build state: %v", err)
	}
	fmt.Println("build state removed")
}
