//go:build ignore

package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"redeemly/internal/model"
)

// Writes two gzipped JSON-lines catalogue files for local testing. Coupons
// reference stores S001 and S002, which must exist before import; C-DUP
// appears in both files so the second copy is skipped.
func main() {
	dataDir := "data/catalogue"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Hour)
	limit := func(n int) *int { return &n }

	coupon := func(id, storeID, title string, d model.Discount, usageLimit *int, perRedeemer int, days int) model.Coupon {
		return model.Coupon{
			ID:               id,
			StoreID:          storeID,
			Title:            title,
			Discount:         d,
			ValidFrom:        now.Add(-24 * time.Hour),
			ValidTo:          now.Add(time.Duration(days) * 24 * time.Hour),
			UsageLimit:       usageLimit,
			PerRedeemerLimit: perRedeemer,
			IsActive:         true,
		}
	}

	files := map[string][]model.Coupon{
		"catalogue1.jsonl.gz": {
			coupon("C-WELCOME", "S001", "10% off your first coffee", model.Discount{Type: model.DiscountPercentage, Value: 10}, nil, 1, 30),
			coupon("C-LUNCH", "S001", "2.50 off lunch", model.Discount{Type: model.DiscountFixed, Value: 2.5}, limit(100), 0, 7),
			coupon("C-DUP", "S002", "Free cookie", model.Discount{Type: model.DiscountFixed, Value: 1.2}, limit(1), 1, 3),
		},
		"catalogue2.jsonl.gz": {
			coupon("C-LASTONE", "S002", "Half price, one only", model.Discount{Type: model.DiscountPercentage, Value: 50}, limit(1), 1, 1),
			coupon("C-DUP", "S002", "Free cookie", model.Discount{Type: model.DiscountFixed, Value: 1.2}, limit(1), 1, 3),
			coupon("C-ORPHAN", "S999", "Store does not exist", model.Discount{Type: model.DiscountFixed, Value: 1}, nil, 1, 3),
		},
	}

	for filename, coupons := range files {
		filePath := filepath.Join(dataDir, filename)

		if err := writeCatalogue(filePath, coupons); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d coupons\n", filePath, len(coupons))
	}

	fmt.Println("\nSample catalogue created. Register stores S001 and S002, then start with:")
	fmt.Printf("  CATALOGUE_FILES=%s,%s\n",
		filepath.Join(dataDir, "catalogue1.jsonl.gz"),
		filepath.Join(dataDir, "catalogue2.jsonl.gz"))
	fmt.Println("\nExpected import: 4 created, 1 skipped (C-DUP), 1 invalid (C-ORPHAN)")
}

func writeCatalogue(filePath string, coupons []model.Coupon) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	enc := json.NewEncoder(gzipWriter)
	for _, c := range coupons {
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("failed to write coupon %s: %w", c.ID, err)
		}
	}

	return nil
}
