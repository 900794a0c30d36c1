package content

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/andybalholm/brotli"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/taikoxyz/taiko-mono/foundation/blockchain/protocol"
)

// Version is the only payload version the codec understands.
const Version = 1

// maxDecompressedLen bounds the decompressed payload.
const maxDecompressedLen = 1024 * 1024 * 16 // 16 MiB

// headerLen is the size of the version and size words preceding the payload.
const headerLen = 64

// Set of errors returned by the codec.
var (
	ErrShortFrame      = errors.New("frame shorter than its header")
	ErrUnknownVersion  = errors.New("unknown content version")
	ErrSizeOutOfFrame  = errors.New("payload size exceeds frame")
	ErrPayloadTooLarge = errors.New("decompressed payload too large")
)

// Codec encodes and decodes content frames. A frame is a 32 byte version
// word, a 32 byte payload size word and the brotli compressed RLP encoding
// of the content.
type Codec struct{}

// Encode builds a frame holding the specified content.
func (Codec) Encode(c protocol.Content) ([]byte, error) {
	c.ProverFee = c.Fee()

	enc, err := rlp.EncodeToBytes(&c)
	if err != nil {
		return nil, fmt.Errorf("rlp encode: %w", err)
	}

	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.BestCompression)
	if _, err := w.Write(enc); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}

	frame := make([]byte, headerLen, headerLen+buf.Len())
	big.NewInt(Version).FillBytes(frame[:32])
	new(big.Int).SetUint64(uint64(buf.Len())).FillBytes(frame[32:headerLen])

	return append(frame, buf.Bytes()...), nil
}

// Decode reads the content held in a frame. It implements DecodeFunc.
func (Codec) Decode(data []byte) (protocol.Content, error) {
	if len(data) < headerLen {
		return protocol.Content{}, fmt.Errorf("%w: got %d bytes", ErrShortFrame, len(data))
	}

	version := new(big.Int).SetBytes(data[:32])
	if !version.IsUint64() || version.Uint64() != Version {
		return protocol.Content{}, fmt.Errorf("%w: %s", ErrUnknownVersion, version)
	}

	size := new(big.Int).SetBytes(data[32:headerLen])
	if !size.IsUint64() || size.Uint64() > uint64(len(data)-headerLen) {
		return protocol.Content{}, fmt.Errorf("%w: size %s, frame %d", ErrSizeOutOfFrame, size, len(data))
	}

	payload := data[headerLen : headerLen+int(size.Uint64())]

	r := io.LimitReader(brotli.NewReader(bytes.NewReader(payload)), maxDecompressedLen+1)
	enc, err := io.ReadAll(r)
	if err != nil {
		return protocol.Content{}, fmt.Errorf("decompress: %w", err)
	}
	if len(enc) > maxDecompressedLen {
		return protocol.Content{}, ErrPayloadTooLarge
	}

	var c protocol.Content
	if err := rlp.DecodeBytes(enc, &c); err != nil {
		return protocol.Content{}, fmt.Errorf("rlp decode: %w", err)
	}

	return c, nil
}
