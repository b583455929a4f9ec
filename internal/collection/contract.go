package collection

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/domain"
	"github.com/feral-file/ff-sbt/internal/logger"
	"github.com/feral-file/ff-sbt/internal/network"
	"github.com/feral-file/ff-sbt/internal/sbt"
	"github.com/feral-file/ff-sbt/internal/store"
)

// Network is the part of the network a collection needs
type Network interface {
	sbt.Deployer
	IsDeployed(addr cell.Address) bool
}

// Contract is the collection account. It mints items one at a time and
// hands them their init body.
type Contract struct {
	address cell.Address
	net     Network
	store   store.Store
	items   *sbt.Handler
}

var _ network.Contract = (*Contract)(nil)

// NewContract creates the contract for the collection stored at address
func NewContract(address cell.Address, net Network, st store.Store, items *sbt.Handler) *Contract {
	return &Contract{address: address, net: net, store: st, items: items}
}

// Deploy persists a new collection and installs its contract
func Deploy(ctx context.Context, net Network, st store.Store, items *sbt.Handler, c *domain.Collection, balance domain.Coins) (*Contract, error) {
	if _, err := NftContent(c.CommonContent, nil); err != nil {
		return nil, err
	}
	if err := st.SaveCollection(ctx, c, domain.ChangeMeta{Op: "deploy", Sender: c.Owner.String()}); err != nil {
		return nil, fmt.Errorf("failed to save collection: %w", err)
	}
	contract := NewContract(c.Address, net, st, items)
	if err := net.Deploy(c.Address, contract, balance); err != nil {
		return nil, err
	}
	return contract, nil
}

// Address returns the collection address
func (c *Contract) Address() cell.Address {
	return c.address
}

// Receive handles mint and change-owner requests from the collection owner.
// Bounces and empty bodies are accepted without effect.
func (c *Contract) Receive(ctx context.Context, in network.Inbound) ([]domain.Message, error) {
	msg := in.Message
	if msg.External {
		return nil, domain.NewExitError(domain.ExitNotAccepted, domain.ErrExternalMessage)
	}
	if msg.Bounced || msg.Body == nil || msg.Body.BeginParse().IsEmpty() {
		return nil, nil
	}

	col, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	s := msg.Body.BeginParse()
	op, queryID, err := sbt.ParseHeader(s)
	if err != nil {
		return nil, domain.Malformed(err)
	}
	if op != domain.OpMintSBT && op != domain.OpChangeOwner {
		return nil, domain.NewExitError(domain.ExitUnknownOperation, domain.ErrUnknownOperation)
	}
	if !col.Owner.Equal(msg.Source) {
		return nil, domain.NewExitError(domain.ExitAccessDenied, domain.ErrAccessDenied)
	}

	switch op {
	case domain.OpMintSBT:
		mint, err := parseMintSBT(queryID, s)
		if err != nil {
			return nil, domain.Malformed(err)
		}
		return c.mint(ctx, col, mint, in.Balance)

	default:
		newOwner, err := s.LoadAddr()
		if err != nil {
			return nil, domain.Malformed(err)
		}
		next := col.Clone()
		next.Owner = newOwner
		if err := c.store.SaveCollection(ctx, next, domain.ChangeMeta{Op: op.String(), Sender: msg.Source.String()}); err != nil {
			return nil, fmt.Errorf("failed to save collection: %w", err)
		}
		return nil, nil
	}
}

func (c *Contract) mint(ctx context.Context, col *domain.Collection, mint *MintSBT, balance domain.Coins) ([]domain.Message, error) {
	if mint.Index > col.NextItemIndex {
		return nil, domain.NewExitError(domain.ExitIndexOutOfRange, domain.ErrIndexOutOfRange)
	}
	if mint.ForwardAmount > balance {
		return nil, domain.NewExitError(domain.ExitInsufficientFunds, domain.ErrInsufficientFunds)
	}
	addr := ItemAddress(c.address, mint.Index)
	if c.net.IsDeployed(addr) {
		return nil, domain.NewExitError(domain.ExitAlreadyDeployed, domain.ErrItemAlreadyExists)
	}

	initBody, err := mint.Init.ToCell()
	if err != nil {
		return nil, domain.Malformed(err)
	}

	// the item row and the index bump commit together before the item
	// exists on the network, so a failed save leaves the mint retryable
	item := domain.NewUninitializedItem(addr, mint.Index, c.address)
	record := store.Mint{
		Item:     item,
		ItemMeta: domain.ChangeMeta{Op: "deploy", Sender: c.address.String()},
	}
	if mint.Index == col.NextItemIndex {
		next := col.Clone()
		next.NextItemIndex++
		record.Collection = next
		record.CollectionMeta = domain.ChangeMeta{Op: domain.OpMintSBT.String(), Sender: col.Owner.String()}
	}
	if err := c.store.SaveMint(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save mint: %w", err)
	}
	if err := c.net.Deploy(addr, sbt.NewContract(addr, c.items, c.store), 0); err != nil {
		return nil, fmt.Errorf("failed to deploy item: %w", err)
	}

	logger.InfoCtx(ctx, "Item minted",
		zap.String("collection", c.address.String()),
		zap.String("item", addr.String()),
		zap.Uint64("index", mint.Index),
		zap.String("owner", mint.Init.Owner.String()),
	)

	return []domain.Message{{
		Destination: addr,
		Value:       mint.ForwardAmount,
		Bounce:      true,
		Body:        initBody,
	}}, nil
}

func (c *Contract) load(ctx context.Context) (*domain.Collection, error) {
	col, err := c.store.GetCollection(ctx, c.address)
	if err != nil {
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}
	if col == nil {
		return nil, fmt.Errorf("collection %s: %w", c.address, domain.ErrAccountNotFound)
	}
	return col, nil
}

// Data is the get_collection_data result
type Data struct {
	NextItemIndex uint64
	Content       *cell.Cell
	Owner         cell.Address
}

// GetCollectionData returns the collection's public state
func (c *Contract) GetCollectionData(ctx context.Context) (*Data, error) {
	col, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return &Data{NextItemIndex: col.NextItemIndex, Content: col.Content, Owner: col.Owner}, nil
}

// GetItemAddressByIndex returns the address the item at index lives at
func (c *Contract) GetItemAddressByIndex(index uint64) cell.Address {
	return ItemAddress(c.address, index)
}

// GetNftContent joins the common prefix with an item's individual content
func (c *Contract) GetNftContent(ctx context.Context, individual *cell.Cell) (*cell.Cell, error) {
	col, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return NftContent(col.CommonContent, individual)
}
