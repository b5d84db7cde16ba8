package syncer

import (
	"context"
	"math/rand"

	"trading-journal-go/internal/models"
)

// Importer pulls closed trades for an account from its trading platform.
type Importer interface {
	// Import returns how many trades were imported.
	Import(ctx context.Context, account *models.BrokerAccount) (int, error)
}

// SimulatedImporter stands in for a platform bridge: it reports 1 to 10 trades and touches nothing.
type SimulatedImporter struct{}

func NewSimulatedImporter() *SimulatedImporter {
	return &SimulatedImporter{}
}

func (s *SimulatedImporter) Import(ctx context.Context, account *models.BrokerAccount) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return rand.Intn(10) + 1, nil
}
