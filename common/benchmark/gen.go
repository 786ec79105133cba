package benchmark

import (
	"fmt"
	mrand "math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veilmark/soulbench/common"
)

// Distribution defines how contract IDs are picked during a workload.
type Distribution string

const (
	DistUniform    Distribution = "uniform"    // all contracts equally likely
	DistZipfian    Distribution = "zipfian"    // 80/20 rule (realistic)
	DistSequential Distribution = "sequential" // round-robin access
)

// contractNamespace seeds the deterministic UUIDv5 IDs so the same
// index always maps to the same contract ID across runs and backends.
var contractNamespace = uuid.MustParse("7b0d3f52-9a1e-4f8e-b6c4-1d2e9a7f5c3b")

var soulNames = []string{
	"Faust", "Dorian", "Marguerite", "Johannes", "Lilith",
	"Theophilus", "Ekaterina", "Rosalind", "Caliban", "Imogen",
}

var clauses = []string{
	"eternal servitude, renewable at term",
	"one favor, callable at any hour",
	"firstborn talent, transferable",
	"seven years of fortune, then collection",
	"memory of a summer, paid forward",
}

// ContractGen deterministically generates soul contracts and picks
// access indexes according to a distribution. Safe for concurrent use.
type ContractGen struct {
	numContracts int
	holders      int
	distribution Distribution

	mu   sync.Mutex
	rng  *mrand.Rand
	zipf *mrand.Zipf
	seq  int64
}

func NewContractGen(numContracts, holders int, distribution Distribution, seed int64) *ContractGen {
	if numContracts < 1 {
		numContracts = 1
	}
	if holders < 1 {
		holders = 1
	}
	rng := mrand.New(mrand.NewSource(seed))

	g := &ContractGen{
		numContracts: numContracts,
		holders:      holders,
		distribution: distribution,
		rng:          rng,
	}
	if distribution == DistZipfian {
		g.zipf = mrand.NewZipf(rng, 1.1, 1, uint64(numContracts-1))
	}
	return g
}

// NextIndex picks the next contract index according to the configured
// distribution.
func (g *ContractGen) NextIndex() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.distribution {
	case DistZipfian:
		return int(g.zipf.Uint64())
	case DistSequential:
		g.seq++
		return int(g.seq % int64(g.numContracts))
	default:
		return g.rng.Intn(g.numContracts)
	}
}

// ID maps an index to its stable contract ID.
func (g *ContractGen) ID(n int) string {
	return uuid.NewSHA1(contractNamespace, []byte(fmt.Sprintf("soul-%010d", n))).String()
}

// ScopedID maps a counter to a stable ID in a scope's own space. Scoped
// IDs never collide with the index-based IDs from ID, so churn-style
// workloads can create and delete without touching preloaded contracts.
func (g *ContractGen) ScopedID(scope string, n int) string {
	return uuid.NewSHA1(contractNamespace, []byte(fmt.Sprintf("%s-%010d", scope, n))).String()
}

// Contract builds the full deterministic contract for an index.
func (g *ContractGen) Contract(n int) common.SoulContract {
	signed := time.Date(2024, 10, 31, 0, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Second)
	statuses := common.Statuses()

	return common.SoulContract{
		ID:         g.ID(n),
		SoulName:   fmt.Sprintf("%s %04d", soulNames[n%len(soulNames)], n),
		HolderName: g.Holder(n),
		Clause:     clauses[n%len(clauses)],
		Price:      66.6 + float64(n%1000)*1.5,
		Status:     statuses[n%len(statuses)],
		SignedAt:   signed,
		UpdatedAt:  signed,
	}
}

// Holder maps an index to its holder name.
func (g *ContractGen) Holder(n int) string {
	return fmt.Sprintf("broker-%03d", n%g.holders)
}

// Mutate returns the contract with the fields an update workload
// touches changed deterministically.
func (g *ContractGen) Mutate(c common.SoulContract) common.SoulContract {
	statuses := common.Statuses()
	for i, s := range statuses {
		if s == c.Status {
			c.Status = statuses[(i+1)%len(statuses)]
			break
		}
	}
	c.Price += 13.13
	c.UpdatedAt = c.UpdatedAt.Add(time.Minute)
	return c
}
