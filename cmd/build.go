package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the documentation",
	Long: `Read the markdown sources, register the declared CMake entities,
resolve cross-references and write the HTML output. Unchanged documents
are not re-read; use --force to rebuild from scratch.`,
	Run: runBuild,
}

var buildForce bool

func init() {
	buildCmd.Flags().BoolVar(&buildForce, "force", false, "re-read every document")
}

func runBuild(cmd *cobra.Command, args []string) {
	session, _ := newSession()
	defer session.Close()

	stats, err := session.Build(context.Background(), buildForce)
	if err != nil {
		log.Fatalf("build failed: %v", err)
	}

	fmt.Printf("%d documents (%d read, %d removed), %d entities, %d pages written\n",
		stats.Documents, stats.Read, stats.Purged, stats.Entities, stats.PagesWritten)
}
