package collection

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/domain"
	"github.com/feral-file/ff-sbt/internal/logger"
	"github.com/feral-file/ff-sbt/internal/sbt"
	"github.com/feral-file/ff-sbt/internal/store"
)

const restorePageSize = 200

// Restore reinstalls a stored collection and every item it minted. Balances
// are not persisted, so restored accounts start empty.
func Restore(ctx context.Context, net Network, st store.Store, items *sbt.Handler, address cell.Address) (*Contract, error) {
	col, err := st.GetCollection(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}
	if col == nil {
		return nil, fmt.Errorf("collection %s: %w", address, domain.ErrAccountNotFound)
	}

	contract := NewContract(address, net, st, items)
	if err := net.Deploy(address, contract, 0); err != nil {
		return nil, err
	}

	restored := 0
	for offset := 0; ; offset += restorePageSize {
		page, total, err := st.ListItems(ctx, store.ItemFilter{
			Collection: address,
			Limit:      restorePageSize,
			Offset:     offset,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list items: %w", err)
		}
		for _, item := range page {
			if err := net.Deploy(item.Address, sbt.NewContract(item.Address, items, st), 0); err != nil {
				return nil, fmt.Errorf("failed to restore item %s: %w", item.Address, err)
			}
			restored++
		}
		if len(page) == 0 || uint64(offset+len(page)) >= total {
			break
		}
	}

	logger.InfoCtx(ctx, "Collection restored",
		zap.String("collection", address.String()),
		zap.Uint64("next_item_index", col.NextItemIndex),
		zap.Int("items", restored),
	)
	return contract, nil
}
