package network

import (
	"context"

	"github.com/feral-file/ff-sbt/internal/domain"
)

// Wallet is a plain account that accepts every message and never replies
type Wallet struct{}

var _ Contract = Wallet{}

func (Wallet) Receive(context.Context, Inbound) ([]domain.Message, error) {
	return nil, nil
}

// ContractFunc adapts a function to Contract
type ContractFunc func(ctx context.Context, in Inbound) ([]domain.Message, error)

func (f ContractFunc) Receive(ctx context.Context, in Inbound) ([]domain.Message, error) {
	return f(ctx, in)
}
