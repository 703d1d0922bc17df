package main

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"github.com/clems4ever/oscal-cli/model"
	"github.com/clems4ever/oscal-cli/render"
)

func main() {
	// Paths are relative to the repository root
	inputFile := "render/testdata/catalog.json"
	outputFile := "render/testdata/catalog_golden.html"

	if _, err := os.Stat(inputFile); os.IsNotExist(err) {
		log.Fatalf("Input file not found: %s. Please run this command from the repository root.", inputFile)
	}

	reg, err := model.Default()
	if err != nil {
		log.Fatalf("Failed to load the built-in models: %v", err)
	}

	fmt.Printf("Reading %s...\n", inputFile)
	doc, err := reg.Context().NewLoader().Load(inputFile, 0)
	if err != nil {
		log.Fatalf("Failed to load input file: %v", err)
	}

	fmt.Println("Rendering catalog to HTML...")
	var buf bytes.Buffer
	if err := render.Catalog(&buf, doc); err != nil {
		log.Fatalf("Rendering failed: %v", err)
	}

	fmt.Printf("Writing to %s...\n", outputFile)
	if err := os.WriteFile(outputFile, buf.Bytes(), 0644); err != nil {
		log.Fatalf("Failed to write output file: %v", err)
	}

	fmt.Println("Done. Golden file updated.")
}
