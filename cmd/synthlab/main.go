package main

import (
	"os"

	"github.com/wonny/synthlab/backend/cmd/synthlab/commands"
)

// main is the entry point for the Synth Lab CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/synthlab [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
