package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/MarcoKoch/sphinx-cmake-domain/internal/domain"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Print the entity index of the last build",
	Run:   runIndex,
}

func runIndex(cmd *cobra.Command, args []string) {
	session, cfg := newSession()
	defer session.Close()

	reg, err := session.Registry()
	if err != nil {
		log.Fatalf("failed to load environment: %v", err)
	}

	groups := domain.BuildIndex(reg, cfg.IndexOptions())
	if len(groups) == 0 {
		fmt.Println("no indexed entities (run `cmakedoc build` first)")
		return
	}

	for _, g := range groups {
		fmt.Println(g.Key)
		for _, entry := range g.Entries {
			printIndexEntry(entry, "  ")
		}
	}
}

func printIndexEntry(entry domain.IndexEntry, indent string) {
	if entry.TypeLabel != "" {
		fmt.Printf("%s%s (%s) — %s\n", indent, entry.Name, entry.TypeLabel, entry.Document)
	} else {
		fmt.Printf("%s%s\n", indent, entry.Name)
	}
	for _, sub := range entry.Subentries {
		printIndexEntry(sub, indent+"  ")
	}
}
