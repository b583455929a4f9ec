// Package network is the internal message-passing layer items live on.
// It moves value with every delivery, bounces failed bounceable messages
// back to their sender and records each delivery as a transaction.
package network

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feral-file/ff-sbt/internal/adapter"
	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/domain"
	"github.com/feral-file/ff-sbt/internal/logger"
)

// ErrTooManyWaves is returned when a message cascade does not settle
var ErrTooManyWaves = errors.New("message cascade exceeded wave limit")

// Inbound is what a contract receives for one delivery
type Inbound struct {
	Message domain.Message
	// Balance already includes Message.Value
	Balance domain.Coins
	Now     uint64
}

// Contract is the code behind an account. Receive must not keep state
// across calls other than through its own store; a returned error
// rejects the message and nothing it produced is applied.
//
//go:generate mockgen -source=network.go -destination=../mocks/network.go -package=mocks -mock_names=Contract=MockContract,Observer=MockObserver
type Contract interface {
	Receive(ctx context.Context, in Inbound) ([]domain.Message, error)
}

// Observer is told about every transaction once its wave completes
type Observer interface {
	OnTransaction(ctx context.Context, tx *Transaction)
}

// Config holds network configuration
type Config struct {
	// WorkerPoolSize bounds how many accounts process messages at once
	WorkerPoolSize int
	// MaxWaves bounds the depth of a single cascade
	MaxWaves int
}

type account struct {
	mu       sync.Mutex
	balance  domain.Coins
	contract Contract
}

// Network routes messages between accounts
type Network struct {
	mu        sync.RWMutex
	accounts  map[cell.Address]*account
	observers []Observer
	clock     adapter.Clock
	pool      pond.Pool
	maxWaves  int
}

// New creates a network
func New(cfg Config, clock adapter.Clock) *Network {
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 16
	}
	if cfg.MaxWaves <= 0 {
		cfg.MaxWaves = 64
	}
	return &Network{
		accounts: make(map[cell.Address]*account),
		clock:    clock,
		pool:     pond.NewPool(cfg.WorkerPoolSize),
		maxWaves: cfg.MaxWaves,
	}
}

// Close stops the worker pool
func (n *Network) Close() {
	n.pool.StopAndWait()
}

// Observe registers an observer
func (n *Network) Observe(o Observer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers = append(n.observers, o)
}

// Deploy installs contract at addr with an initial balance. Deploying over
// an uninitialized account keeps the value it already holds.
func (n *Network) Deploy(addr cell.Address, contract Contract, balance domain.Coins) error {
	if addr.IsNone() {
		return fmt.Errorf("cannot deploy to addr_none")
	}
	n.mu.Lock()
	acc, ok := n.accounts[addr]
	if !ok {
		n.accounts[addr] = &account{contract: contract, balance: balance}
		n.mu.Unlock()
		return nil
	}
	n.mu.Unlock()

	acc.mu.Lock()
	defer acc.mu.Unlock()
	if acc.contract != nil {
		return fmt.Errorf("account %s: %w", addr, domain.ErrItemAlreadyExists)
	}
	acc.contract = contract
	acc.balance += balance
	return nil
}

// IsDeployed reports whether a contract lives at addr
func (n *Network) IsDeployed(addr cell.Address) bool {
	acc := n.lookup(addr)
	if acc == nil {
		return false
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.contract != nil
}

// Balance returns the balance held at addr
func (n *Network) Balance(addr cell.Address) (domain.Coins, error) {
	acc := n.lookup(addr)
	if acc == nil {
		return 0, fmt.Errorf("%s: %w", addr, domain.ErrAccountNotFound)
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.balance, nil
}

func (n *Network) lookup(addr cell.Address) *account {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.accounts[addr]
}

// Send injects an internal message and processes the cascade it causes.
// When the source is a known account its balance pays for the value.
func (n *Network) Send(ctx context.Context, msg domain.Message) (*Trace, error) {
	msg.External = false
	msg.Bounced = false
	if msg.Body == nil {
		msg.Body = cell.Empty()
	}
	if src := n.lookup(msg.Source); src != nil {
		src.mu.Lock()
		if src.balance < msg.Value {
			src.mu.Unlock()
			return nil, fmt.Errorf("source %s: %w", msg.Source, domain.ErrInsufficientFunds)
		}
		src.balance -= msg.Value
		src.mu.Unlock()
	}
	return n.run(ctx, msg)
}

// SendExternal delivers an inbound external message. It carries no value
// and can never bounce.
func (n *Network) SendExternal(ctx context.Context, dest cell.Address, body *cell.Cell) (*Trace, error) {
	if body == nil {
		body = cell.Empty()
	}
	return n.run(ctx, domain.Message{Destination: dest, External: true, Body: body})
}

func (n *Network) run(ctx context.Context, first domain.Message) (*Trace, error) {
	trace := &Trace{}
	queue := []domain.Message{first}
	for wave := 0; len(queue) > 0; wave++ {
		if wave >= n.maxWaves {
			return trace, ErrTooManyWaves
		}
		if err := ctx.Err(); err != nil {
			return trace, err
		}

		txs, err := n.runWave(ctx, queue)
		if err != nil {
			return trace, err
		}

		queue = queue[:0:0]
		for _, tx := range txs {
			trace.Transactions = append(trace.Transactions, tx)
			queue = append(queue, tx.OutMessages...)
			n.notify(ctx, tx)
		}
	}
	return trace, nil
}

// runWave delivers one generation of messages. Messages for the same
// account run in order inside one task, so no account ever processes two
// messages at once.
func (n *Network) runWave(ctx context.Context, msgs []domain.Message) ([]*Transaction, error) {
	var order []cell.Address
	byDest := make(map[cell.Address][]domain.Message)
	for _, m := range msgs {
		if _, ok := byDest[m.Destination]; !ok {
			order = append(order, m.Destination)
		}
		byDest[m.Destination] = append(byDest[m.Destination], m)
	}

	results := make([][]*Transaction, len(order))
	group := n.pool.NewGroup()
	for i, dest := range order {
		batch := byDest[dest]
		group.Submit(func() {
			for _, m := range batch {
				results[i] = append(results[i], n.deliver(ctx, m))
			}
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("failed to process wave: %w", err)
	}

	var txs []*Transaction
	for _, r := range results {
		txs = append(txs, r...)
	}
	return txs, nil
}

func (n *Network) deliver(ctx context.Context, msg domain.Message) *Transaction {
	// pre-epoch clocks stamp 0
	now := uint64(max(n.clock.Now().Unix(), 0))
	tx := &Transaction{
		ID:        uuid.New(),
		Account:   msg.Destination,
		InMessage: msg,
		Now:       now,
	}

	acc := n.accountFor(msg)
	if acc == nil {
		tx.fail(domain.NewExitError(domain.ExitNotAccepted, fmt.Errorf("%s: %w", msg.Destination, domain.ErrAccountNotFound)))
		return tx
	}

	acc.mu.Lock()
	defer acc.mu.Unlock()

	if acc.contract == nil {
		if bounceable(msg) {
			tx.fail(fmt.Errorf("%s: %w", msg.Destination, domain.ErrAccountNotFound))
			tx.OutMessages = []domain.Message{bounceOf(msg, now)}
			return tx
		}
		acc.balance += msg.Value
		tx.Success = true
		return tx
	}

	credited := acc.balance + msg.Value
	out, err := acc.contract.Receive(ctx, Inbound{Message: msg, Balance: credited, Now: now})
	if err == nil {
		var total domain.Coins
		for _, m := range out {
			total += m.Value
		}
		if total > credited {
			err = domain.NewExitError(domain.ExitInsufficientFunds, domain.ErrInsufficientFunds)
		} else {
			acc.balance = credited - total
		}
	}

	if err != nil {
		tx.fail(err)
		logger.DebugCtx(ctx, "Message rejected",
			zap.String("account", msg.Destination.String()),
			zap.Int("exit_code", tx.ExitCode),
			zap.Error(err),
		)
		switch {
		case msg.External:
		case bounceable(msg):
			tx.OutMessages = []domain.Message{bounceOf(msg, now)}
		default:
			acc.balance = credited
		}
		return tx
	}

	for i := range out {
		if out[i].Body == nil {
			out[i].Body = cell.Empty()
		}
		out[i].Source = msg.Destination
		out[i].CreatedAt = now
	}
	tx.Success = true
	tx.OutMessages = out
	return tx
}

// accountFor returns the destination account, creating an empty one for
// internal messages to unknown addresses; externals never create accounts.
func (n *Network) accountFor(msg domain.Message) *account {
	if acc := n.lookup(msg.Destination); acc != nil {
		return acc
	}
	if msg.External {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if acc, ok := n.accounts[msg.Destination]; ok {
		return acc
	}
	acc := &account{}
	n.accounts[msg.Destination] = acc
	return acc
}

func bounceable(msg domain.Message) bool {
	return msg.Bounce && !msg.Bounced && !msg.External && !msg.Source.IsNone()
}

// bounceOf returns the value to the sender with 0xffffffff followed by the
// first 256 bits of the original body
func bounceOf(msg domain.Message, now uint64) domain.Message {
	s := msg.Body.BeginParse()
	bits := min(s.BitsLeft(), domain.BOUNCED_BODY_BITS)
	head, _ := s.LoadSlice(bits)
	body := cell.BeginCell().
		StoreUInt(uint64(domain.BOUNCED_PREFIX), 32).
		StoreSlice(head, bits).
		MustEndCell()
	return domain.Message{
		Source:      msg.Destination,
		Destination: msg.Source,
		Value:       msg.Value,
		Bounce:      false,
		Bounced:     true,
		Body:        body,
		CreatedAt:   now,
	}
}

func (n *Network) notify(ctx context.Context, tx *Transaction) {
	n.mu.RLock()
	observers := append([]Observer(nil), n.observers...)
	n.mu.RUnlock()
	for _, o := range observers {
		o.OnTransaction(ctx, tx)
	}
}
