package extract

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"

	"credlink/internal/domain"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

const pngManifestChunk = "caBX"

// parsePNGChunk walks PNG chunks for the manifest-bearing caBX chunk. A
// failing chunk CRC keeps the candidate but downgrades its integrity.
func parsePNGChunk(data []byte) (*located, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, errNoPayload
	}
	offset := len(pngSignature)
	for offset+12 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[offset:]))
		chunkType := string(data[offset+4 : offset+8])
		dataStart := offset + 8
		dataEnd := dataStart + length
		if length < 0 || dataEnd+4 > len(data) {
			return nil, errors.New("truncated png chunk")
		}
		if chunkType == pngManifestChunk {
			blob := data[dataStart:dataEnd]
			env, err := decodePayload(blob)
			if err != nil {
				return nil, err
			}
			integrity := domain.IntegrityIntact
			declared := binary.BigEndian.Uint32(data[dataEnd:])
			computed := crc32.ChecksumIEEE(data[offset+4 : dataEnd])
			if declared != computed {
				integrity = domain.IntegrityCorrupted
			}
			return &located{
				envelope: env,
				// Excise the whole chunk, CRC included.
				start:     offset,
				end:       dataEnd + 4,
				integrity: integrity,
			}, nil
		}
		if chunkType == "IEND" {
			break
		}
		offset = dataEnd + 4
	}
	return nil, errNoPayload
}
