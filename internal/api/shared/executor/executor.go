package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/feral-file/ff-sbt/internal/api/shared/dto"
	apierrors "github.com/feral-file/ff-sbt/internal/api/shared/errors"
	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/collection"
	"github.com/feral-file/ff-sbt/internal/content"
	"github.com/feral-file/ff-sbt/internal/domain"
	"github.com/feral-file/ff-sbt/internal/network"
	"github.com/feral-file/ff-sbt/internal/store"
)

// Executor is the interface for the API executor. Methods return a nil
// response with a nil error when the resource does not exist.
//
//go:generate mockgen -source=executor.go -destination=../../../mocks/mock_api_executor.go -package=mocks -mock_names=Executor=MockAPIExecutor
type Executor interface {
	// GetItem retrieves a single item by address
	GetItem(ctx context.Context, address string) (*dto.ItemResponse, error)

	// ListItems retrieves items of the hosted collection, optionally filtered by owner
	ListItems(ctx context.Context, owner string, limit int, offset int) (*dto.ItemListResponse, error)

	// GetItemContent resolves the full content URI of an initialized item
	GetItemContent(ctx context.Context, address string) (*dto.ItemContentResponse, error)

	// GetCollection retrieves the hosted collection
	GetCollection(ctx context.Context) (*dto.CollectionResponse, error)

	// GetChanges retrieves journal entries after the cursor
	GetChanges(ctx context.Context, subject string, since uint64, limit int) (*dto.ChangeListResponse, error)

	// SubmitMessage injects an internal message and returns the resulting trace
	SubmitMessage(ctx context.Context, req dto.SubmitMessageRequest) (*dto.TraceResponse, error)
}

// Sender injects a message into the network
type Sender interface {
	Send(ctx context.Context, msg domain.Message) (*network.Trace, error)
}

type executor struct {
	store      store.Store
	collection *collection.Contract
	sender     Sender
}

func NewExecutor(store store.Store, collection *collection.Contract, sender Sender) Executor {
	return &executor{store: store, collection: collection, sender: sender}
}

func (e *executor) GetItem(ctx context.Context, address string) (*dto.ItemResponse, error) {
	addr, err := parseAddress("address", address)
	if err != nil {
		return nil, err
	}

	item, err := e.store.GetItem(ctx, addr)
	if err != nil {
		return nil, apierrors.NewDatabaseError(fmt.Sprintf("Failed to get item: %v", err))
	}
	if item == nil {
		return nil, nil
	}

	resp, err := dto.MapItemToDTO(item)
	if err != nil {
		return nil, apierrors.NewInternalError(fmt.Sprintf("Failed to encode item: %v", err))
	}
	return resp, nil
}

func (e *executor) ListItems(ctx context.Context, owner string, limit int, offset int) (*dto.ItemListResponse, error) {
	filter := store.ItemFilter{
		Collection: e.collection.Address(),
		Limit:      limit,
		Offset:     offset,
	}
	if owner != "" {
		addr, err := parseAddress("owner", owner)
		if err != nil {
			return nil, err
		}
		filter.Owner = addr
	}

	items, total, err := e.store.ListItems(ctx, filter)
	if err != nil {
		return nil, apierrors.NewDatabaseError(fmt.Sprintf("Failed to list items: %v", err))
	}

	resp := &dto.ItemListResponse{
		Items:  make([]dto.ItemResponse, 0, len(items)),
		Total:  total,
		Offset: offset,
	}
	for _, item := range items {
		itemDTO, err := dto.MapItemToDTO(item)
		if err != nil {
			return nil, apierrors.NewInternalError(fmt.Sprintf("Failed to encode item: %v", err))
		}
		resp.Items = append(resp.Items, *itemDTO)
	}
	return resp, nil
}

func (e *executor) GetItemContent(ctx context.Context, address string) (*dto.ItemContentResponse, error) {
	addr, err := parseAddress("address", address)
	if err != nil {
		return nil, err
	}

	item, err := e.store.GetItem(ctx, addr)
	if err != nil {
		return nil, apierrors.NewDatabaseError(fmt.Sprintf("Failed to get item: %v", err))
	}
	if item == nil || !item.Collection.Equal(e.collection.Address()) {
		return nil, nil
	}
	if !item.Initialized() {
		return nil, apierrors.NewConflictError(domain.ErrNotInitialized.Error())
	}

	full, err := e.collection.GetNftContent(ctx, item.Content)
	if err != nil {
		return nil, apierrors.NewServiceError(fmt.Sprintf("Failed to join content: %v", err))
	}
	uri, err := content.DecodeOffChain(full)
	if err != nil {
		return nil, apierrors.NewServiceError(fmt.Sprintf("Failed to decode content: %v", err))
	}
	encoded, err := dto.EncodeCell(full)
	if err != nil {
		return nil, apierrors.NewInternalError(fmt.Sprintf("Failed to encode content: %v", err))
	}

	return &dto.ItemContentResponse{Address: item.Address.String(), URI: uri, Content: encoded}, nil
}

func (e *executor) GetCollection(ctx context.Context) (*dto.CollectionResponse, error) {
	data, err := e.collection.GetCollectionData(ctx)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apierrors.NewDatabaseError(fmt.Sprintf("Failed to get collection: %v", err))
	}

	encoded, err := dto.EncodeCell(data.Content)
	if err != nil {
		return nil, apierrors.NewInternalError(fmt.Sprintf("Failed to encode content: %v", err))
	}
	resp := &dto.CollectionResponse{
		Address:       e.collection.Address().String(),
		Owner:         data.Owner.String(),
		NextItemIndex: data.NextItemIndex,
		Content:       encoded,
	}
	// Collection content is not required to be an off-chain envelope
	if uri, err := content.DecodeOffChain(data.Content); err == nil {
		resp.ContentURI = uri
	}
	return resp, nil
}

func (e *executor) GetChanges(ctx context.Context, subject string, since uint64, limit int) (*dto.ChangeListResponse, error) {
	var addr cell.Address
	if subject != "" {
		var err error
		addr, err = parseAddress("subject", subject)
		if err != nil {
			return nil, err
		}
	}

	changes, err := e.store.GetChanges(ctx, addr, since, limit)
	if err != nil {
		return nil, apierrors.NewDatabaseError(fmt.Sprintf("Failed to get changes: %v", err))
	}
	return dto.MapChangesToDTO(changes, since), nil
}

func (e *executor) SubmitMessage(ctx context.Context, req dto.SubmitMessageRequest) (*dto.TraceResponse, error) {
	source, err := parseAddress("source", req.Source)
	if err != nil {
		return nil, err
	}
	destination, err := parseAddress("destination", req.Destination)
	if err != nil {
		return nil, err
	}
	if source.IsNone() || destination.IsNone() {
		return nil, apierrors.NewValidationError("source and destination must not be addr_none")
	}
	value, err := domain.ParseCoins(req.Value)
	if err != nil {
		return nil, apierrors.NewValidationError(fmt.Sprintf("value: %v", err))
	}
	body, err := dto.DecodeCell(req.Body)
	if err != nil {
		return nil, apierrors.NewValidationError(fmt.Sprintf("body: %v", err))
	}

	trace, err := e.sender.Send(ctx, domain.Message{
		Source:      source,
		Destination: destination,
		Value:       value,
		Bounce:      req.Bounce,
		Body:        body,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) || errors.Is(err, domain.ErrAccountNotFound) {
			return nil, apierrors.NewBadRequestError(err.Error())
		}
		return nil, apierrors.NewServiceError(fmt.Sprintf("Failed to deliver message: %v", err))
	}

	return dto.MapTraceToDTO(trace), nil
}

func parseAddress(field, raw string) (cell.Address, error) {
	addr, err := cell.ParseAddress(raw)
	if err != nil {
		return cell.Address{}, apierrors.NewValidationError(fmt.Sprintf("%s: %v", field, err))
	}
	return addr, nil
}
