package sbt

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/domain"
	"github.com/feral-file/ff-sbt/internal/logger"
	"github.com/feral-file/ff-sbt/internal/network"
)

// ItemStore is the part of the store an item contract needs
type ItemStore interface {
	GetItem(ctx context.Context, address cell.Address) (*domain.Item, error)
	SaveItem(ctx context.Context, item *domain.Item, meta domain.ChangeMeta) error
}

// Contract runs the item protocol for one address on the network
type Contract struct {
	address cell.Address
	handler *Handler
	store   ItemStore
}

var _ network.Contract = (*Contract)(nil)

// NewContract creates the contract for the item stored at address
func NewContract(address cell.Address, handler *Handler, store ItemStore) *Contract {
	return &Contract{address: address, handler: handler, store: store}
}

// Address returns the item address
func (c *Contract) Address() cell.Address {
	return c.address
}

// Receive loads the item, applies the message and persists the new state
// only when the message was accepted and something changed
func (c *Contract) Receive(ctx context.Context, in network.Inbound) ([]domain.Message, error) {
	item, err := c.store.GetItem(ctx, c.address)
	if err != nil {
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("%s: %w", c.address, domain.ErrItemNotFound)
	}

	msg := in.Message
	res, err := c.handler.Handle(item, Inbound{
		Self:     c.address,
		Sender:   msg.Source,
		Value:    msg.Value,
		Balance:  in.Balance,
		Bounced:  msg.Bounced,
		External: msg.External,
		Body:     msg.Body,
		Now:      in.Now,
	})
	if err != nil {
		logger.DebugCtx(ctx, "Item rejected message",
			zap.String("item", c.address.String()),
			zap.String("sender", msg.Source.String()),
			zap.Int("exit_code", domain.ExitCode(err)),
			zap.Error(err),
		)
		return nil, err
	}

	if !sameState(item, res.Item) {
		meta := domain.ChangeMeta{Op: changeOp(item, msg), Sender: msg.Source.String()}
		if err := c.store.SaveItem(ctx, res.Item, meta); err != nil {
			return nil, fmt.Errorf("failed to save item: %w", err)
		}
	}
	return res.Messages, nil
}

func sameState(a, b *domain.Item) bool {
	if a.State != b.State || a.RevokedAt != b.RevokedAt {
		return false
	}
	if a.Content == nil || b.Content == nil {
		return a.Content == b.Content
	}
	return a.Content.Equal(b.Content)
}

func changeOp(before *domain.Item, msg domain.Message) string {
	if !before.Initialized() {
		return "init"
	}
	op, ok := msg.OpCode()
	if !ok {
		return "unknown"
	}
	return op.String()
}

// Deployer installs contracts on the network
type Deployer interface {
	Deploy(addr cell.Address, contract network.Contract, balance domain.Coins) error
}

// Deploy persists an uninitialized item and installs its contract
func Deploy(ctx context.Context, net Deployer, store ItemStore, handler *Handler, item *domain.Item, balance domain.Coins) (*Contract, error) {
	if item.Initialized() {
		return nil, fmt.Errorf("item %s is already initialized", item.Address)
	}
	// persist first so a failed save leaves nothing on the network
	if err := store.SaveItem(ctx, item, domain.ChangeMeta{Op: "deploy", Sender: item.Collection.String()}); err != nil {
		return nil, fmt.Errorf("failed to save item: %w", err)
	}
	contract := NewContract(item.Address, handler, store)
	if err := net.Deploy(item.Address, contract, balance); err != nil {
		return nil, err
	}
	return contract, nil
}
