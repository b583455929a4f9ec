// Package content packs byte strings of any length into snake chains of
// cells and carries the off-chain URI envelope on top of them.
package content

import (
	"errors"
	"fmt"

	"github.com/feral-file/ff-sbt/internal/cell"
)

const (
	// ChunkSize is the payload carried by each node of a snake chain
	ChunkSize = 127
	// OffChainPrefix tags a snake payload as a UTF-8 URI
	OffChainPrefix byte = 0x01
)

var (
	// ErrInvalidContentPrefix is returned when an off-chain payload does not start with OffChainPrefix
	ErrInvalidContentPrefix = errors.New("invalid content prefix")
	// ErrUnalignedNode is returned when a chain node holds a partial byte
	ErrUnalignedNode = errors.New("content node is not byte aligned")
)

// Encode splits data into ChunkSize pieces and chains them innermost-first,
// so the returned root carries the first chunk. Empty input gives one empty leaf.
func Encode(data []byte) *cell.Cell {
	var chunks [][]byte
	for len(data) > 0 {
		n := min(ChunkSize, len(data))
		chunks = append(chunks, data[:n])
		data = data[n:]
	}
	if len(chunks) == 0 {
		return cell.Empty()
	}

	var next *cell.Cell
	for i := len(chunks) - 1; i >= 0; i-- {
		b := cell.BeginCell().StoreBytes(chunks[i])
		if next != nil {
			b.StoreRef(next)
		}
		next = b.MustEndCell()
	}
	return next
}

// Decode walks the chain from root, concatenating every node payload and
// following the first reference until a node has none.
func Decode(root *cell.Cell) ([]byte, error) {
	var out []byte
	depth := 0
	for node := root; node != nil; node = node.Ref(0) {
		if node.BitsSize()%8 != 0 {
			return nil, fmt.Errorf("%w: node %d holds %d bits", ErrUnalignedNode, depth, node.BitsSize())
		}
		payload, err := node.BeginParse().LoadSlice(node.BitsSize())
		if err != nil {
			return nil, fmt.Errorf("failed to read node %d: %w", depth, err)
		}
		out = append(out, payload...)
		depth++
	}
	return out, nil
}

// EncodeOffChain wraps uri in the off-chain envelope
func EncodeOffChain(uri string) *cell.Cell {
	data := make([]byte, 0, len(uri)+1)
	data = append(data, OffChainPrefix)
	data = append(data, uri...)
	return Encode(data)
}

// DecodeOffChain unwraps an off-chain envelope and returns the URI
func DecodeOffChain(root *cell.Cell) (string, error) {
	data, err := Decode(root)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty payload", ErrInvalidContentPrefix)
	}
	if data[0] != OffChainPrefix {
		return "", fmt.Errorf("%w: 0x%02x", ErrInvalidContentPrefix, data[0])
	}
	return string(data[1:]), nil
}
