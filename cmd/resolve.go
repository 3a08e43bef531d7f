package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/MarcoKoch/sphinx-cmake-domain/internal/domain"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <role> <target>",
	Short: "Resolve a cross-reference against the last build",
	Example: `  cmakedoc resolve var MY_PROJECT_VERSION
  cmakedoc resolve any my_command()
  cmakedoc resolve mod FindFoo.cmake`,
	Args: cobra.ExactArgs(2),
	Run:  runResolve,
}

func runResolve(cmd *cobra.Command, args []string) {
	session, cfg := newSession()
	defer session.Close()

	reg, err := session.Registry()
	if err != nil {
		log.Fatalf("failed to load environment: %v", err)
	}

	res := domain.Resolve(reg, args[0], args[1], cfg.Display())
	switch res.State {
	case domain.Resolved:
		e := res.Entity
		fmt.Printf("%s: %s in %s#%s\n", res.Title, e.Type, e.Document, e.Anchor)
	case domain.Ambiguous:
		fmt.Println("ambiguous, candidates:")
		for _, c := range res.Candidates {
			fmt.Printf("  %s: %s in %s#%s\n", c.DisplayName(cfg.Display()), c.Type, c.Document, c.Anchor)
		}
	default:
		fmt.Println("unresolved")
	}
}
