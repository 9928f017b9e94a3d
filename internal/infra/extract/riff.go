package extract

import (
	"bytes"
	"encoding/binary"
	"errors"

	"credlink/internal/domain"
)

// RIFF/WebP embedding: little-endian chunks, manifest in a CLMF chunk.
const riffManifestFourCC = "CLMF"

func parseRIFFChunk(data []byte) (*located, error) {
	if len(data) < 12 || !bytes.HasPrefix(data, []byte("RIFF")) {
		return nil, errNoPayload
	}
	riffSize := int(binary.LittleEndian.Uint32(data[4:]))
	if riffSize < 4 || 8+riffSize > len(data) {
		return nil, errors.New("riff size out of range")
	}
	if string(data[8:12]) != "WEBP" {
		return nil, errNoPayload
	}
	offset := 12
	limit := 8 + riffSize
	for offset+8 <= limit {
		fourCC := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4:]))
		dataStart := offset + 8
		dataEnd := dataStart + size
		if size < 0 || dataEnd > limit {
			return nil, errors.New("truncated riff chunk")
		}
		if fourCC == riffManifestFourCC {
			env, err := decodePayload(data[dataStart:dataEnd])
			if err != nil {
				return nil, err
			}
			padded := dataEnd
			if size%2 == 1 {
				padded++
			}
			return &located{
				envelope:  env,
				start:     offset,
				end:       padded,
				integrity: domain.IntegrityIntact,
			}, nil
		}
		offset = dataEnd
		if size%2 == 1 {
			offset++
		}
	}
	return nil, errNoPayload
}
