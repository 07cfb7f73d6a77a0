package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/grovetools/spawn/config"
	"github.com/grovetools/spawn/sessionlog"
)

func main() {
	outputDir := "schema/definitions"
	if len(os.Args) > 1 {
		outputDir = os.Args[1]
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Fatalf("Error creating schema directory: %v", err)
	}

	generators := []struct {
		file     string
		generate func() ([]byte, error)
	}{
		{"spawn.schema.json", config.GenerateSchema},
		{"session-entry.schema.json", sessionlog.EntrySchema},
	}

	for _, g := range generators {
		schemaBytes, err := g.generate()
		if err != nil {
			log.Fatalf("Error generating %s: %v", g.file, err)
		}
		outputPath := filepath.Join(outputDir, g.file)
		if err := os.WriteFile(outputPath, schemaBytes, 0644); err != nil {
			log.Fatalf("Error writing schema file: %v", err)
		}
		log.Printf("Generated %s", outputPath)
	}
}
