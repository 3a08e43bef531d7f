package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/MarcoKoch/sphinx-cmake-domain/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as MCP server over stdio",
	Long: `Expose the documented entities of the last build over the Model
Context Protocol: reference resolution, entity listing and per-entity
documentation resources.`,
	Run: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) {
	session, cfg := newSession()
	defer session.Close()

	server := mcp.NewServer(session, cfg)
	if err := server.Run(); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
