package fb2

import (
	"encoding/base64"
	"fmt"
)

// isBase64Byte reports whether b is one of the 64 standard base64 alphabet
// characters. Padding ('=', 61) is deliberately excluded: it is stripped
// along with whitespace/corruption by decodeBase64Tolerant's filter pass and
// re-derived by the decoder from input length, not preserved verbatim.
func isBase64Byte(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z':
		return true
	case b >= 'a' && b <= 'z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '+' || b == '/':
		return true
	default:
		return false
	}
}

// decodeBase64Tolerant decodes FB2 <binary> content that real-world archives
// sometimes truncate or corrupt mid-stream. It first drops every byte that
// isn't part of the base64 alphabet (whitespace, stray newlines, injected
// garbage), then decodes what's left. If the decoder reports a corrupt
// byte, the input is trimmed back to the preceding 4-byte boundary and
// decoded once more; a second failure is fatal and returns nil data.
//
// On a successful truncated recovery, warn describes what was dropped;
// otherwise warn is "".
func decodeBase64Tolerant(raw string) (data []byte, warn string) {
	filtered := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if isBase64Byte(raw[i]) {
			filtered = append(filtered, raw[i])
		}
	}
	if len(filtered) == 0 {
		return nil, ""
	}

	enc := base64.StdEncoding.WithPadding(base64.NoPadding)
	data, err := enc.DecodeString(string(filtered))
	if err == nil {
		return data, ""
	}

	truncated := filtered[:len(filtered)-len(filtered)%4]
	if len(truncated) == 0 {
		return nil, ""
	}
	data, err2 := enc.DecodeString(string(truncated))
	if err2 != nil {
		return nil, ""
	}
	return data, fmt.Sprintf("truncated corrupt base64 payload from %d to %d bytes: %v", len(filtered), len(truncated), err)
}
