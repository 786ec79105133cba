package common

import (
	"context"
	"time"
)

// ContractStatus is the lifecycle state of a soul contract.
type ContractStatus string

const (
	StatusActive    ContractStatus = "active"
	StatusFulfilled ContractStatus = "fulfilled"
	StatusVoided    ContractStatus = "voided"
	StatusDisputed  ContractStatus = "disputed"
)

// Statuses lists every contract status in a stable order.
func Statuses() []ContractStatus {
	return []ContractStatus{StatusActive, StatusFulfilled, StatusVoided, StatusDisputed}
}

// SoulContract is the single record type both backends store.
type SoulContract struct {
	ID         string         `json:"id"`
	SoulName   string         `json:"soul_name"`
	HolderName string         `json:"holder_name"`
	Clause     string         `json:"clause"`
	Price      float64        `json:"price"`
	Status     ContractStatus `json:"status"`
	SignedAt   time.Time      `json:"signed_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// StatusTotal is one row of the analytical aggregate: how many
// contracts are in a status and what they are worth together.
type StatusTotal struct {
	Status     ContractStatus
	Count      int64
	TotalPrice float64
}

// ContractStore is the interface both backends implement. The harness
// benchmarks exactly these operations.
type ContractStore interface {
	// Create stores a new contract. Returns ErrContractExists if the
	// ID is already taken.
	Create(ctx context.Context, c SoulContract) error

	// Get returns ErrContractNotFound if the ID is absent.
	Get(ctx context.Context, id string) (SoulContract, error)

	// Update replaces an existing contract. Returns
	// ErrContractNotFound if the ID is absent.
	Update(ctx context.Context, c SoulContract) error

	// Delete removes a contract. Returns ErrContractNotFound if the
	// ID is absent.
	Delete(ctx context.Context, id string) error

	// ListByHolder returns every contract held by the named holder.
	ListByHolder(ctx context.Context, holder string) ([]SoulContract, error)

	// TotalsByStatus aggregates count and total price per status.
	TotalsByStatus(ctx context.Context) ([]StatusTotal, error)

	// Count returns the number of stored contracts.
	Count(ctx context.Context) (int64, error)

	// Close releases the underlying database.
	Close() error
}
