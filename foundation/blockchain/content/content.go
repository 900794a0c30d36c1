// Package content turns the blob bytes of a proposal into the content used
// to derive its blocks. Decoding never fails the caller: data that can't be
// decoded is replaced by a default content producing one empty block, so a
// malformed proposal can't stall the chain.
package content

import (
	"errors"
	"fmt"

	"github.com/taikoxyz/taiko-mono/foundation/blockchain/protocol"
)

// Set of decode errors reported through the event handler.
var (
	ErrNoBlocks       = errors.New("content has no blocks")
	ErrTooManyBlocks  = errors.New("content has too many blocks")
	ErrSliceOutOfBlob = errors.New("blob slice out of range")
)

// DecodeFunc is the node specific routine decoding raw bytes into content.
type DecodeFunc func(data []byte) (protocol.Content, error)

// EventHandler defines a function that is called when events
// occur in the processing of content.
type EventHandler func(v string, args ...any)

// Decoder applies the liveness rules on top of a DecodeFunc.
type Decoder struct {
	decode    DecodeFunc
	maxBlocks int
	evHandler EventHandler
}

// NewDecoder constructs a decoder for the specified decode routine. Content
// with more than maxBlocks blocks is treated as undecodable.
func NewDecoder(decode DecodeFunc, maxBlocks int, evHandler EventHandler) *Decoder {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &Decoder{
		decode:    decode,
		maxBlocks: maxBlocks,
		evHandler: ev,
	}
}

// Decode returns the content encoded in data or, if that fails for any
// reason, the default content.
func (d *Decoder) Decode(data []byte) protocol.Content {
	c, err := d.decode(data)
	if err == nil {
		err = d.validate(c)
	}

	if err != nil {
		d.evHandler("content: Decode: WARNING: using default content: %s", err)
		return protocol.DefaultContent()
	}

	return c
}

// DecodeSegment cuts the proposal's segment out of its blob bytes and
// decodes it. A slice that doesn't fit the blobs yields the default content.
func (d *Decoder) DecodeSegment(blobs []byte, slice protocol.BlobSlice) protocol.Content {
	data, err := Segment(blobs, slice)
	if err != nil {
		d.evHandler("content: DecodeSegment: WARNING: using default content: %s", err)
		return protocol.DefaultContent()
	}

	return d.Decode(data)
}

// validate applies the rules every decoded content must satisfy.
func (d *Decoder) validate(c protocol.Content) error {
	switch {
	case len(c.Blocks) == 0:
		return ErrNoBlocks

	case d.maxBlocks > 0 && len(c.Blocks) > d.maxBlocks:
		return fmt.Errorf("%w: got %d, max %d", ErrTooManyBlocks, len(c.Blocks), d.maxBlocks)
	}

	return nil
}

// =============================================================================

// Segment returns the bytes of blobs addressed by the slice.
func Segment(blobs []byte, slice protocol.BlobSlice) ([]byte, error) {
	end := slice.Offset + slice.Size
	if end < slice.Offset || end > uint64(len(blobs)) {
		return nil, fmt.Errorf("%w: offset %d, size %d, blobs %d", ErrSliceOutOfBlob, slice.Offset, slice.Size, len(blobs))
	}

	return blobs[slice.Offset:end], nil
}
