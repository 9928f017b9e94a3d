package extract

import (
	"bytes"
	"errors"
)

var exifHeader = []byte("Exif\x00\x00")

// parseEXIFTag walks JPEG markers to the APP1 Exif segment and scans its
// IFD0 for the manifest tag.
func parseEXIFTag(data []byte) (*located, error) {
	if len(data) < 4 || data[0] != 0xff || data[1] != 0xd8 {
		return nil, errNoPayload
	}
	offset := 2
	for offset+4 <= len(data) {
		if data[offset] != 0xff {
			return nil, errors.New("invalid jpeg marker")
		}
		marker := data[offset+1]
		// Padding and standalone markers carry no length field.
		if marker == 0xff {
			offset++
			continue
		}
		if marker == 0xd9 || marker == 0xda {
			// EOI / SOS: entropy-coded data follows, no more segments.
			break
		}
		if offset+4 > len(data) {
			return nil, errors.New("truncated jpeg segment")
		}
		segLen := int(data[offset+2])<<8 | int(data[offset+3])
		if segLen < 2 || offset+2+segLen > len(data) {
			return nil, errors.New("jpeg segment length out of range")
		}
		payload := data[offset+4 : offset+2+segLen]
		if marker == 0xe1 && bytes.HasPrefix(payload, exifHeader) {
			base := offset + 4 + len(exifHeader)
			loc, err := parseTIFFAt(data[:offset+2+segLen], base)
			if err == nil {
				return loc, nil
			}
			if !errors.Is(err, errNoPayload) {
				return nil, err
			}
		}
		offset += 2 + segLen
	}
	return nil, errNoPayload
}
