package extract

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"credlink/internal/domain"
)

// JUMBF-style embedding: big-endian ISO boxes, manifest payload inside a
// cbor content box nested under a jumb superbox.
const (
	boxTypeJUMB = "jumb"
	boxTypeCBOR = "cbor"

	boxHeaderLen = 8
)

func parseJUMBF(data []byte) (*located, error) {
	if len(data) < boxHeaderLen {
		return nil, errNoPayload
	}
	// A box stream starts with a well-formed box; require a plausible
	// first header so arbitrary binaries are rejected cheaply.
	if _, _, _, err := readBoxHeader(data, 0); err != nil {
		return nil, errNoPayload
	}
	loc, err := walkBoxes(data, 0, len(data), 0)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, errNoPayload
	}
	return loc, nil
}

const maxBoxDepth = 8

func walkBoxes(data []byte, offset, limit, depth int) (*located, error) {
	if depth > maxBoxDepth {
		return nil, errors.New("box nesting too deep")
	}
	for offset < limit {
		size, boxType, contentStart, err := readBoxHeader(data, offset)
		if err != nil {
			return nil, err
		}
		contentEnd := offset + size
		switch boxType {
		case boxTypeJUMB:
			loc, err := walkBoxes(data, contentStart, contentEnd, depth+1)
			if err != nil {
				return nil, err
			}
			if loc != nil {
				return loc, nil
			}
		case boxTypeCBOR:
			blob := data[contentStart:contentEnd]
			if bytes.HasPrefix(blob, payloadMagic) {
				env, err := decodePayload(blob)
				if err != nil {
					return nil, err
				}
				return &located{
					envelope:  env,
					start:     contentStart,
					end:       contentEnd,
					integrity: domain.IntegrityIntact,
				}, nil
			}
		}
		offset = contentEnd
	}
	return nil, nil
}

// readBoxHeader validates a box header at offset and returns the total box
// size, its type, and where content starts. A size field that cannot be
// determined deterministically aborts the method.
func readBoxHeader(data []byte, offset int) (size int, boxType string, contentStart int, err error) {
	if offset+boxHeaderLen > len(data) {
		return 0, "", 0, errors.New("truncated box header")
	}
	raw := binary.BigEndian.Uint32(data[offset:])
	boxType = string(data[offset+4 : offset+8])
	if !printableFourCC(boxType) {
		return 0, "", 0, fmt.Errorf("invalid box type %q", boxType)
	}
	switch raw {
	case 0:
		// Box extends to end of stream.
		size = len(data) - offset
	case 1:
		// 64-bit extended sizes exceed anything this engine accepts.
		return 0, "", 0, errors.New("unsupported extended box size")
	default:
		size = int(raw)
	}
	if size < boxHeaderLen || offset+size > len(data) {
		return 0, "", 0, fmt.Errorf("box size %d out of range", raw)
	}
	return size, boxType, offset + boxHeaderLen, nil
}

func printableFourCC(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}
