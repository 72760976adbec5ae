package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/nfc-inventory/internal/adapter/storage"
	"github.com/rl1809/nfc-inventory/internal/config"
	"github.com/rl1809/nfc-inventory/internal/core/domain"
)

const (
	materialID    = "stress-material"
	initialStock  = 20
	totalRequests = 50
)

// Fires concurrent withdrawals straight at MySQL, bypassing the in-process workflow lock,
// to check that row locking alone prevents lost updates.
func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := storage.OpenMySQL(cfg.MySQL)
	if err != nil {
		log.Fatalf("failed to open mysql: %v", err)
	}
	defer db.Close()

	if err := storage.Migrate(ctx, db); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	store := storage.NewMySQLAdapter(db)
	err = store.UpsertMaterial(ctx, domain.Material{
		ID:          materialID,
		Name:        "Stress test bolts",
		Category:    "test",
		Quantity:    initialStock,
		Length:      decimal.NewFromInt(10),
		MinQuantity: 5,
		Color:       "grey",
	})
	if err != nil {
		log.Fatalf("failed to seed material: %v", err)
	}

	var successCount atomic.Int32
	var insufficientCount atomic.Int32
	var otherCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()

			_, err := store.Withdraw(ctx, domain.Withdrawal{
				UserTag:     domain.TagID(fmt.Sprintf("user-%d", userID)),
				MaterialTag: materialID,
				Quantity:    1,
				At:          time.Now(),
			})
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				insufficientCount.Add(1)
			default:
				otherCount.Add(1)
				log.Printf("user-%d: %v", userID, err)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	insufficient := insufficientCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Insufficient:     %d\n", insufficient)
	fmt.Printf("Other errors:     %d\n", otherCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == int32(initialStock) && insufficient == int32(totalRequests-initialStock) {
		fmt.Printf("PASS: exactly %d withdrawals succeeded, %d rejected\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: expected %d success/%d insufficient, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, insufficient)
	}

	materials, err := store.SearchMaterials(ctx, domain.SearchByName, "stress test bolts")
	if err != nil || len(materials) != 1 {
		log.Fatalf("failed to read back material: %v", err)
	}
	fmt.Printf("Final Stock: %d\n", materials[0].Quantity)
	if materials[0].Quantity == 0 {
		fmt.Println("PASS: stock depleted to 0")
	} else {
		fmt.Printf("FAIL: expected stock 0, got %d\n", materials[0].Quantity)
	}
}
