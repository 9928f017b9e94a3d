package extract

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"hash/crc32"
	"strings"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"

	"credlink/internal/domain"
)

func testClaim(generator string) claimPayload {
	return claimPayload{
		Generator: generator,
		CreatedAt: "2026-08-01T10:00:00Z",
		Assertions: []assertionPayload{
			{Label: domain.AssertionActions, Data: map[string]any{"action": "c2pa.created"}},
		},
		SigInfo: sigInfoPayload{Alg: "ES256", Issuer: "CN=Credlink Test Signer"},
	}
}

func encodeBlob(t *testing.T, env payloadEnvelope) []byte {
	t.Helper()
	raw, err := cbor.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return append(append([]byte{}, payloadMagic...), raw...)
}

type pngChunk struct {
	typ  string
	data []byte
}

func writePNG(chunks []pngChunk) []byte {
	var buf bytes.Buffer
	buf.Write(pngSignature)
	for _, c := range chunks {
		var hdr [8]byte
		binary.BigEndian.PutUint32(hdr[:4], uint32(len(c.data)))
		copy(hdr[4:], c.typ)
		buf.Write(hdr[:])
		buf.Write(c.data)
		crc := crc32.ChecksumIEEE(append([]byte(c.typ), c.data...))
		var tail [4]byte
		binary.BigEndian.PutUint32(tail[:], crc)
		buf.Write(tail[:])
	}
	return buf.Bytes()
}

func buildPNG(blob []byte) []byte {
	return writePNG([]pngChunk{
		{typ: "IHDR", data: make([]byte, 13)},
		{typ: pngManifestChunk, data: blob},
		{typ: "IEND"},
	})
}

func box(typ string, content []byte) []byte {
	out := make([]byte, boxHeaderLen+len(content))
	binary.BigEndian.PutUint32(out, uint32(len(out)))
	copy(out[4:], typ)
	copy(out[boxHeaderLen:], content)
	return out
}

func buildJUMBF(blob []byte) []byte {
	return box(boxTypeJUMB, box(boxTypeCBOR, blob))
}

func buildXMP(blob []byte) []byte {
	b64 := base64.StdEncoding.EncodeToString(blob)
	return []byte(`<?xpacket begin="" id="W5M0MpCehiHzreSzNTczkc9d"?>` +
		`<x:xmpmeta credlink:manifest="` + b64 + `"/>` +
		`<?xpacket end="w"?>`)
}

func buildWebP(blob []byte) []byte {
	var chunk bytes.Buffer
	chunk.WriteString(riffManifestFourCC)
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(blob)))
	chunk.Write(size[:])
	chunk.Write(blob)
	if len(blob)%2 == 1 {
		chunk.WriteByte(0)
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.LittleEndian.PutUint32(size[:], uint32(4+chunk.Len()))
	buf.Write(size[:])
	buf.WriteString("WEBP")
	buf.Write(chunk.Bytes())
	return buf.Bytes()
}

func buildTIFF(blob []byte) []byte {
	le := binary.LittleEndian
	var buf bytes.Buffer
	buf.WriteString("II")
	var u16 [2]byte
	var u32 [4]byte
	le.PutUint16(u16[:], 42)
	buf.Write(u16[:])
	le.PutUint32(u32[:], 8)
	buf.Write(u32[:])
	le.PutUint16(u16[:], 1)
	buf.Write(u16[:])
	entry := make([]byte, 12)
	le.PutUint16(entry, tiffManifestTag)
	le.PutUint16(entry[2:], 7)
	le.PutUint32(entry[4:], uint32(len(blob)))
	le.PutUint32(entry[8:], 26)
	buf.Write(entry)
	le.PutUint32(u32[:], 0)
	buf.Write(u32[:])
	buf.Write(blob)
	return buf.Bytes()
}

func buildJPEG(blob []byte) []byte {
	tiff := buildTIFF(blob)
	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xd8})
	segLen := 2 + len(exifHeader) + len(tiff)
	buf.Write([]byte{0xff, 0xe1, byte(segLen >> 8), byte(segLen)})
	buf.Write(exifHeader)
	buf.Write(tiff)
	buf.Write([]byte{0xff, 0xd9})
	return buf.Bytes()
}

func TestExtract_EmptyInput(t *testing.T) {
	o := NewOrchestrator(0)
	if _, err := o.Extract(nil); !errors.Is(err, domain.ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
}

func TestExtract_PNGChunk(t *testing.T) {
	blob := encodeBlob(t, payloadEnvelope{Claim: testClaim("credlink-studio/2.1")})
	image := buildPNG(blob)

	result, err := NewOrchestrator(0).Extract(image)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if result.Method != domain.MethodPNGChunk {
		t.Fatalf("expected png_chunk, got %s", result.Method)
	}
	if result.Confidence != confidencePNGChunk {
		t.Fatalf("expected confidence %d, got %d", confidencePNGChunk, result.Confidence)
	}
	if result.Manifest == nil || result.Manifest.Generator != "credlink-studio/2.1" {
		t.Fatalf("unexpected manifest: %+v", result.Manifest)
	}
	if result.Partial {
		t.Fatal("complete manifest flagged partial")
	}
	if result.Integrity != domain.IntegrityIntact {
		t.Fatalf("expected intact, got %s", result.Integrity)
	}

	// Content hash binds to the image with the manifest chunk excised.
	without := writePNG([]pngChunk{
		{typ: "IHDR", data: make([]byte, 13)},
		{typ: "IEND"},
	})
	sum := sha256.Sum256(without)
	if result.ContentHash != hex.EncodeToString(sum[:]) {
		t.Fatalf("content hash mismatch: %s", result.ContentHash)
	}
}

func TestExtract_PNGCorruptCRC(t *testing.T) {
	blob := encodeBlob(t, payloadEnvelope{Claim: testClaim("gen")})
	image := buildPNG(blob)
	idx := bytes.Index(image, []byte(pngManifestChunk))
	if idx < 0 {
		t.Fatal("fixture missing manifest chunk")
	}
	image[idx+4+len(blob)] ^= 0xff

	result, err := NewOrchestrator(0).Extract(image)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if result.Method != domain.MethodPNGChunk {
		t.Fatalf("expected png_chunk, got %s", result.Method)
	}
	if result.Integrity != domain.IntegrityCorrupted {
		t.Fatalf("expected corrupted, got %s", result.Integrity)
	}
}

func TestExtract_JUMBFBeatsXMP(t *testing.T) {
	blob := encodeBlob(t, payloadEnvelope{Claim: testClaim("gen")})
	image := append(buildJUMBF(blob), buildXMP(blob)...)

	result, err := NewOrchestrator(0).Extract(image)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if result.Method != domain.MethodJUMBF {
		t.Fatalf("expected jumbf_box, got %s", result.Method)
	}
	if result.Confidence != confidenceJUMBF {
		t.Fatalf("expected confidence %d, got %d", confidenceJUMBF, result.Confidence)
	}
	if result.Disagreement {
		t.Fatal("agreeing methods flagged as disagreement")
	}
}

func TestExtract_MethodDisagreement(t *testing.T) {
	blobA := encodeBlob(t, payloadEnvelope{Claim: testClaim("generator-a")})
	blobB := encodeBlob(t, payloadEnvelope{Claim: testClaim("generator-b")})
	image := append(buildJUMBF(blobA), buildXMP(blobB)...)

	result, err := NewOrchestrator(0).Extract(image)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if result.Method != domain.MethodJUMBF {
		t.Fatalf("expected jumbf_box winner, got %s", result.Method)
	}
	if !result.Disagreement {
		t.Fatal("expected disagreement flag")
	}
}

func TestExtract_EXIF(t *testing.T) {
	blob := encodeBlob(t, payloadEnvelope{Claim: testClaim("gen")})
	result, err := NewOrchestrator(0).Extract(buildJPEG(blob))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if result.Method != domain.MethodEXIFTag {
		t.Fatalf("expected exif_tag, got %s", result.Method)
	}
	if result.Manifest == nil {
		t.Fatal("expected manifest")
	}
}

func TestExtract_TIFF(t *testing.T) {
	blob := encodeBlob(t, payloadEnvelope{Claim: testClaim("gen")})
	result, err := NewOrchestrator(0).Extract(buildTIFF(blob))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if result.Method != domain.MethodTIFFIFD {
		t.Fatalf("expected tiff_ifd, got %s", result.Method)
	}
}

func TestExtract_WebP(t *testing.T) {
	blob := encodeBlob(t, payloadEnvelope{Claim: testClaim("gen")})
	result, err := NewOrchestrator(0).Extract(buildWebP(blob))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if result.Method != domain.MethodRIFFChunk {
		t.Fatalf("expected riff_chunk, got %s", result.Method)
	}
}

func TestExtract_XMPReferenceOnly(t *testing.T) {
	image := []byte(`<?xpacket begin="" id="x"?>` +
		`<x:xmpmeta credlink:manifestRef="https://proofs.example.com/manifests/abc123"/>` +
		`<?xpacket end="w"?>`)

	result, err := NewOrchestrator(0).Extract(image)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if result.Method != domain.MethodXMPPacket {
		t.Fatalf("expected xmp_packet, got %s", result.Method)
	}
	if !result.Partial {
		t.Fatal("reference-only find should be partial")
	}
	if result.Manifest != nil {
		t.Fatal("reference-only find should carry no manifest")
	}
	if result.RemoteURI != "https://proofs.example.com/manifests/abc123" {
		t.Fatalf("unexpected remote uri %q", result.RemoteURI)
	}
}

func TestExtract_ScanRecovery(t *testing.T) {
	blob := encodeBlob(t, payloadEnvelope{Claim: testClaim("gen")})
	image := append([]byte("not a container at all "), blob...)

	result, err := NewOrchestrator(0).Extract(image)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if result.Method != domain.MethodScanRecovery {
		t.Fatalf("expected scan_recovery, got %s", result.Method)
	}
	if result.Confidence != confidenceScanRecovery {
		t.Fatalf("expected confidence %d, got %d", confidenceScanRecovery, result.Confidence)
	}
	if result.Manifest == nil {
		t.Fatal("expected recovered manifest")
	}
	if result.Integrity != domain.IntegrityUnknown {
		t.Fatalf("expected unknown integrity, got %s", result.Integrity)
	}
}

func TestExtract_ScanRecoversReferenceURI(t *testing.T) {
	image := []byte("damaged file https://proofs.example.com/manifests/zz9 trailing")
	result, err := NewOrchestrator(0).Extract(image)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if result.Method != domain.MethodScanRecovery {
		t.Fatalf("expected scan_recovery, got %s", result.Method)
	}
	if result.RemoteURI != "https://proofs.example.com/manifests/zz9" {
		t.Fatalf("unexpected remote uri %q", result.RemoteURI)
	}
	if result.Manifest != nil {
		t.Fatal("expected no manifest body")
	}
}

func TestExtract_NothingFound(t *testing.T) {
	result, err := NewOrchestrator(0).Extract([]byte("plain bytes with no provenance"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if result.Method != domain.MethodScanRecovery {
		t.Fatalf("expected scan_recovery, got %s", result.Method)
	}
	if result.Manifest != nil {
		t.Fatal("expected no manifest")
	}
	if !result.Partial {
		t.Fatal("expected partial result")
	}
	if len(result.Errors) == 0 {
		t.Fatal("expected recorded errors")
	}
}

func TestExtract_TruncatedPNGDoesNotPanic(t *testing.T) {
	blob := encodeBlob(t, payloadEnvelope{Claim: testClaim("gen")})
	image := buildPNG(blob)
	image = image[:len(pngSignature)+8+len(blob)/2]

	result, err := NewOrchestrator(0).Extract(image)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if result.Method != domain.MethodScanRecovery {
		t.Fatalf("expected scan_recovery fallback, got %s", result.Method)
	}
	found := false
	for _, msg := range result.Errors {
		if strings.HasPrefix(msg, string(domain.MethodPNGChunk)+":") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected png_chunk error recorded, got %v", result.Errors)
	}
}

func TestExtract_BudgetSkipsLaterMethods(t *testing.T) {
	blob := encodeBlob(t, payloadEnvelope{Claim: testClaim("gen")})
	image := append(buildJUMBF(blob), buildXMP(blob)...)

	o := NewOrchestrator(5 * time.Millisecond)
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	calls := 0
	o.Now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * 10 * time.Millisecond)
	}

	result, err := o.Extract(image)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if result.Method != domain.MethodJUMBF {
		t.Fatalf("expected jumbf_box, got %s", result.Method)
	}
	skipped := false
	for _, msg := range result.Errors {
		if strings.Contains(msg, "budget exhausted") {
			skipped = true
		}
	}
	if !skipped {
		t.Fatalf("expected budget skips recorded, got %v", result.Errors)
	}
}

func TestExtract_IncompleteClaimIsPartial(t *testing.T) {
	blob := encodeBlob(t, payloadEnvelope{Claim: claimPayload{Generator: "gen-only"}})
	result, err := NewOrchestrator(0).Extract(buildPNG(blob))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !result.Partial {
		t.Fatal("incomplete manifest should be partial")
	}
}
