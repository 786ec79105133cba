// Command demo runs a single soul contract through both backends and
// prints what comes back. Useful as a smoke test of the store wiring
// without running a full benchmark.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/veilmark/soulbench/common"
	"github.com/veilmark/soulbench/kvstore"
	"github.com/veilmark/soulbench/sqlstore"
)

func main() {
	ctx := context.Background()

	kv, err := kvstore.Open(kvstore.Config{InMemory: true})
	if err != nil {
		log.Fatal(err)
	}
	defer kv.Close()

	sq, err := sqlstore.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer sq.Close()

	now := time.Now().UTC().Truncate(time.Second)
	contract := common.SoulContract{
		ID:         uuid.NewString(),
		SoulName:   "Faust",
		HolderName: "mephisto",
		Clause:     "seven years of fortune, then collection",
		Price:      666.50,
		Status:     common.StatusActive,
		SignedAt:   now,
		UpdatedAt:  now,
	}

	for _, backend := range []struct {
		name  string
		store common.ContractStore
	}{
		{"badger", kv},
		{"sqlite", sq},
	} {
		if err := backend.store.Create(ctx, contract); err != nil {
			log.Fatalf("%s: create: %v", backend.name, err)
		}
		got, err := backend.store.Get(ctx, contract.ID)
		if err != nil {
			log.Fatalf("%s: get: %v", backend.name, err)
		}
		totals, err := backend.store.TotalsByStatus(ctx)
		if err != nil {
			log.Fatalf("%s: totals: %v", backend.name, err)
		}

		fmt.Printf("[%s] %s holds %q for %.2f\n", backend.name, got.HolderName, got.SoulName, got.Price)
		for _, t := range totals {
			fmt.Printf("[%s]   %s: %d contract(s), %.2f total\n", backend.name, t.Status, t.Count, t.TotalPrice)
		}
	}
}
