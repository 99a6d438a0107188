//go:build ignore

package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"agrolinq/internal/model"
)

// generateSampleCatalog writes catalog files for POST /api/products/import.
// harvest.jsonl.gz imports cleanly; broken.jsonl.gz fails on line 3 with a
// negative price.
func main() {
	dataDir := "data/catalog"

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	catalogs := map[string][]model.ProductInput{
		"harvest.jsonl.gz": {
			{Name: "Tomate italiano", Description: "Colhido no dia", Price: 5.50, Category: "legumes", Stock: 120, Unit: "kg"},
			{Name: "Alface crespa", Price: 3.00, Category: "verduras", Stock: 60, Unit: "maço"},
			{Name: "Mandioca", Description: "Descascada e embalada a vácuo", Price: 6.90, Category: "raízes", Stock: 40, Unit: "kg"},
			{Name: "Mel silvestre", Price: 32.00, Category: "mel", Stock: 15, Unit: "pote"},
			{Name: "Ovos caipira", Price: 18.00, Category: "ovos", Stock: 30, Unit: "dúzia"},
		},
		"broken.jsonl.gz": {
			{Name: "Couve manteiga", Price: 4.00, Category: "verduras", Stock: 25, Unit: "maço"},
			{Name: "Abóbora cabotiá", Price: 4.20, Category: "legumes", Stock: 18, Unit: "kg"},
			{Name: "Banana prata", Price: -2.00, Category: "frutas", Stock: 50, Unit: "kg"},
		},
	}

	for filename, products := range catalogs {
		filePath := filepath.Join(dataDir, filename)

		if err := createCatalogFile(filePath, products); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d products\n", filePath, len(products))
	}

	fmt.Println("\nSample catalog files created successfully!")
	fmt.Println("Set CATALOG_DIR=data/catalog and import with {\"file\": \"harvest.jsonl.gz\"}")
}

func createCatalogFile(filePath string, products []model.ProductInput) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	enc := json.NewEncoder(gzipWriter)
	for _, p := range products {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("failed to write product: %w", err)
		}
	}

	return nil
}
