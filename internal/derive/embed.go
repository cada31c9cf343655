package derive

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"strings"

	"kiln/internal/config"
)

// embedMetadata writes copyright fields into the format's native metadata
// container. JPEG gets a COM segment, PNG gets tEXt chunks; any other format
// has no suitable container and keeps its bytes untouched.
func embedMetadata(data []byte, format string, meta config.EmbedMetadata) []byte {
	fields := metadataFields(meta)
	if len(fields) == 0 {
		return data
	}
	switch format {
	case "jpeg":
		if out, ok := embedJPEGComment(data, strings.Join(fields, "; ")); ok {
			return out
		}
	case "png":
		if out, ok := embedPNGText(data, meta); ok {
			return out
		}
	}
	return data
}

func metadataFields(meta config.EmbedMetadata) []string {
	var fields []string
	if v := strings.TrimSpace(meta.Artist); v != "" {
		fields = append(fields, "Artist: "+v)
	}
	if v := strings.TrimSpace(meta.Copyright); v != "" {
		fields = append(fields, "Copyright: "+v)
	}
	if v := strings.TrimSpace(meta.License); v != "" {
		fields = append(fields, "License: "+v)
	}
	if v := strings.TrimSpace(meta.URL); v != "" {
		fields = append(fields, "URL: "+v)
	}
	return fields
}

// embedJPEGComment inserts a COM marker segment immediately after SOI.
func embedJPEGComment(data []byte, comment string) ([]byte, bool) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, false
	}
	payload := []byte(comment)
	if len(payload)+2 > 0xFFFF {
		payload = payload[:0xFFFF-2]
	}
	segment := make([]byte, 4+len(payload))
	segment[0] = 0xFF
	segment[1] = 0xFE
	binary.BigEndian.PutUint16(segment[2:4], uint16(len(payload)+2))
	copy(segment[4:], payload)

	out := make([]byte, 0, len(data)+len(segment))
	out = append(out, data[:2]...)
	out = append(out, segment...)
	out = append(out, data[2:]...)
	return out, true
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

// embedPNGText inserts tEXt chunks after the IHDR chunk.
func embedPNGText(data []byte, meta config.EmbedMetadata) ([]byte, bool) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, false
	}
	// IHDR is always the first chunk: 8-byte signature, 4-byte length,
	// 4-byte type, 13-byte payload, 4-byte CRC.
	ihdrEnd := len(pngSignature) + 4 + 4 + 13 + 4
	if len(data) < ihdrEnd {
		return nil, false
	}

	var chunks bytes.Buffer
	writePair := func(keyword, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		chunks.Write(pngTextChunk(keyword, value))
	}
	writePair("Author", meta.Artist)
	writePair("Copyright", meta.Copyright)
	writePair("License", meta.License)
	writePair("URL", meta.URL)
	if chunks.Len() == 0 {
		return nil, false
	}

	out := make([]byte, 0, len(data)+chunks.Len())
	out = append(out, data[:ihdrEnd]...)
	out = append(out, chunks.Bytes()...)
	out = append(out, data[ihdrEnd:]...)
	return out, true
}

func pngTextChunk(keyword, value string) []byte {
	payload := append([]byte(keyword), 0)
	payload = append(payload, []byte(value)...)

	chunk := make([]byte, 8+len(payload)+4)
	binary.BigEndian.PutUint32(chunk[0:4], uint32(len(payload)))
	copy(chunk[4:8], "tEXt")
	copy(chunk[8:], payload)

	crc := crc32.NewIEEE()
	crc.Write(chunk[4 : 8+len(payload)])
	binary.BigEndian.PutUint32(chunk[8+len(payload):], crc.Sum32())
	return chunk
}
