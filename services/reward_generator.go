// services/reward_generator.go
package services

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"gift-claim-system/models"
)

// RewardKindConfig is one payout bucket: token name plus inclusive integer
// amount range.
type RewardKindConfig struct {
	Name models.TokenType `json:"name"`
	Min  int64            `json:"min"`
	Max  int64            `json:"max"`
}

// RewardTable drives the outcome draw. MissProbability takes the first slice
// of [0,1); the remainder is split equally across Kinds in listed order.
// Tunable without code changes via REWARD_TABLE_JSON.
type RewardTable struct {
	MissProbability float64            `json:"missProbability"`
	Kinds           []RewardKindConfig `json:"kinds"`
}

var DefaultRewardTable = RewardTable{
	MissProbability: 0.4,
	Kinds: []RewardKindConfig{
		{Name: models.TokenDegen, Min: 50, Max: 500},
		{Name: models.TokenNoice, Min: 100, Max: 1000},
		{Name: models.TokenPepe, Min: 500, Max: 5000},
		{Name: models.TokenBased, Min: 10, Max: 100},
	},
}

// Skill curve: best score shaves up to skillMissReduction off the miss
// probability, linearly, maxing out at skillScoreCeiling.
const (
	skillMissReduction = 0.15
	skillScoreCeiling  = 10000
)

type RewardOutcome struct {
	TokenType models.TokenType `json:"token_type"`
	Amount    int64            `json:"amount"`
}

// RewardGenerator maps an optional skill signal to a weighted random outcome.
// Stateless and side-effect-free; math/rand is deliberate — this is game math,
// not a security primitive.
type RewardGenerator struct {
	Table RewardTable

	randFloat func() float64
	randInt   func(n int64) int64
}

func NewRewardGenerator(table RewardTable) *RewardGenerator {
	return &RewardGenerator{
		Table:     table,
		randFloat: rand.Float64,
		randInt:   rand.Int63n,
	}
}

// Validate checks the table is drawable: miss probability inside [0,1), at
// least one kind, sane amount ranges.
func (t RewardTable) Validate() error {
	if t.MissProbability < 0 || t.MissProbability >= 1 {
		return fmt.Errorf("missProbability %v outside [0, 1)", t.MissProbability)
	}
	if len(t.Kinds) == 0 {
		return fmt.Errorf("reward table has no kinds")
	}
	for _, k := range t.Kinds {
		if k.Min < 0 || k.Max < k.Min {
			return fmt.Errorf("kind %s has invalid amount range [%d, %d]", k.Name, k.Min, k.Max)
		}
	}
	return nil
}

// RewardTableFromEnv returns the validated table from REWARD_TABLE_JSON when
// set, otherwise the default.
func RewardTableFromEnv() (RewardTable, error) {
	raw := os.Getenv("REWARD_TABLE_JSON")
	if raw == "" {
		return DefaultRewardTable, nil
	}
	var table RewardTable
	if err := json.Unmarshal([]byte(raw), &table); err != nil {
		return RewardTable{}, fmt.Errorf("malformed REWARD_TABLE_JSON: %w", err)
	}
	if err := table.Validate(); err != nil {
		return RewardTable{}, fmt.Errorf("invalid REWARD_TABLE_JSON: %w", err)
	}
	return table, nil
}

// Generate draws one outcome. bestScore >= 0 is the caller's best game score;
// 0 means no skill signal.
func (g *RewardGenerator) Generate(bestScore int64) RewardOutcome {
	miss := g.Table.MissProbability
	if bestScore > 0 {
		ratio := float64(bestScore) / skillScoreCeiling
		if ratio > 1 {
			ratio = 1
		}
		miss -= skillMissReduction * ratio
	}

	p := g.randFloat()
	if p < miss {
		return RewardOutcome{TokenType: models.TokenNone, Amount: 0}
	}

	share := (1 - miss) / float64(len(g.Table.Kinds))
	idx := int((p - miss) / share)
	if idx >= len(g.Table.Kinds) {
		idx = len(g.Table.Kinds) - 1
	}

	kind := g.Table.Kinds[idx]
	amount := kind.Min
	if kind.Max > kind.Min {
		amount += g.randInt(kind.Max - kind.Min + 1)
	}
	return RewardOutcome{TokenType: kind.Name, Amount: amount}
}
