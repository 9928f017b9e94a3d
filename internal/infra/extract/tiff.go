package extract

import (
	"encoding/binary"
	"errors"

	"credlink/internal/domain"
)

// Private IFD tag carrying the manifest payload in EXIF and TIFF maps.
const tiffManifestTag = 0xC2C4

// parseTIFFIFD handles standalone TIFF files, the "binary map" embedding.
func parseTIFFIFD(data []byte) (*located, error) {
	return parseTIFFAt(data, 0)
}

// parseTIFFAt walks IFD0 of a TIFF structure beginning at base, looking
// for the private manifest tag. Returned offsets are absolute.
func parseTIFFAt(data []byte, base int) (*located, error) {
	tiff := data[base:]
	if len(tiff) < 8 {
		return nil, errNoPayload
	}
	var order binary.ByteOrder
	switch {
	case tiff[0] == 'I' && tiff[1] == 'I':
		order = binary.LittleEndian
	case tiff[0] == 'M' && tiff[1] == 'M':
		order = binary.BigEndian
	default:
		return nil, errNoPayload
	}
	if order.Uint16(tiff[2:]) != 42 {
		return nil, errNoPayload
	}
	ifdOffset := int(order.Uint32(tiff[4:]))
	if ifdOffset < 8 || ifdOffset+2 > len(tiff) {
		return nil, errors.New("ifd offset out of range")
	}

	count := int(order.Uint16(tiff[ifdOffset:]))
	entries := tiff[ifdOffset+2:]
	if count*12 > len(entries) {
		return nil, errors.New("truncated ifd")
	}
	for i := 0; i < count; i++ {
		entry := entries[i*12 : i*12+12]
		tag := order.Uint16(entry)
		if tag != tiffManifestTag {
			continue
		}
		valueCount := int(order.Uint32(entry[4:]))
		if valueCount <= 4 {
			return nil, errors.New("manifest tag value too short")
		}
		valueOffset := int(order.Uint32(entry[8:]))
		if valueOffset < 0 || valueOffset+valueCount > len(tiff) {
			return nil, errors.New("manifest tag value out of range")
		}
		blob := tiff[valueOffset : valueOffset+valueCount]
		env, err := decodePayload(blob)
		if err != nil {
			return nil, err
		}
		return &located{
			envelope:  env,
			start:     base + valueOffset,
			end:       base + valueOffset + valueCount,
			integrity: domain.IntegrityIntact,
		}, nil
	}
	return nil, errNoPayload
}
