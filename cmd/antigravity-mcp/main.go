// The antigravity MCP bridge: exposes a running daemon's analysis router,
// status, and daily push over the Model Context Protocol on stdio.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/antigravity-ai/antigravity/pkg/mcp"
)

func main() {
	apiURL := flag.String("api", apiURLFromEnv(), "base URL of the antigravity daemon API")
	flag.Parse()

	s := mcp.NewServer(*apiURL)
	if err := s.Serve(); err != nil {
		fmt.Fprintf(os.Stderr, "antigravity-mcp: %v\n", err)
		os.Exit(1)
	}
}

func apiURLFromEnv() string {
	if value := os.Getenv("ANTIGRAVITY_API_URL"); value != "" {
		return value
	}
	return "http://127.0.0.1:8090"
}
