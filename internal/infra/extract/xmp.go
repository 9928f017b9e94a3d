package extract

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"credlink/internal/domain"
)

// XMP embedding: the manifest travels base64-encoded in a credlink:manifest
// attribute inside an xpacket, or by reference in credlink:manifestRef.
// The scan works on the raw byte stream so it finds packets in any wrapper.
var (
	xpacketBegin    = []byte("<?xpacket begin=")
	xpacketEnd      = []byte("<?xpacket end=")
	xmpManifestAttr = []byte(`credlink:manifest="`)
	xmpRefAttr      = []byte(`credlink:manifestRef="`)
)

func parseXMPPacket(data []byte) (*located, error) {
	begin := bytes.Index(data, xpacketBegin)
	if begin < 0 {
		return nil, errNoPayload
	}
	endMark := bytes.Index(data[begin:], xpacketEnd)
	if endMark < 0 {
		return nil, fmt.Errorf("unterminated xpacket")
	}
	regionEnd := begin + endMark
	if close := bytes.IndexByte(data[regionEnd:], '>'); close >= 0 {
		regionEnd += close + 1
	} else {
		regionEnd = len(data)
	}
	packet := data[begin:regionEnd]

	if b64, ok := attrValue(packet, xmpManifestAttr); ok {
		blob, err := base64.StdEncoding.DecodeString(string(b64))
		if err != nil {
			return nil, fmt.Errorf("decode xmp manifest attribute: %w", err)
		}
		env, err := decodePayload(blob)
		if err != nil {
			return nil, err
		}
		return &located{
			envelope:  env,
			start:     begin,
			end:       regionEnd,
			integrity: domain.IntegrityIntact,
		}, nil
	}

	if uri, ok := attrValue(packet, xmpRefAttr); ok && len(uri) > 0 {
		return &located{
			refOnly:   true,
			remoteURI: string(uri),
			start:     begin,
			end:       regionEnd,
			integrity: domain.IntegrityUnknown,
		}, nil
	}
	return nil, errNoPayload
}

func attrValue(packet, attr []byte) ([]byte, bool) {
	i := bytes.Index(packet, attr)
	if i < 0 {
		return nil, false
	}
	rest := packet[i+len(attr):]
	j := bytes.IndexByte(rest, '"')
	if j < 0 {
		return nil, false
	}
	return rest[:j], true
}
