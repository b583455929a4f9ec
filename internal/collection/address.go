// Package collection is the minimal collection an item is minted from:
// it derives item addresses, deploys items and joins their content with
// the common prefix.
package collection

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/domain"
)

// ItemAddress derives the address of the item at index. The hash is
// Keccak-256 over the collection hash followed by the big-endian index.
func ItemAddress(collection cell.Address, index uint64) cell.Address {
	collectionHash := collection.Hash()
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], index)

	var hash [32]byte
	copy(hash[:], crypto.Keccak256(collectionHash[:], idx[:]))
	return cell.NewAddress(domain.BASECHAIN, hash)
}
