package payment

import (
	"bytes"
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"
)

// canonicalJSON serializes with sorted keys, no spaces, no HTML escaping and
// non-ASCII runes escaped as \uXXXX, matching what the gateway signs on its
// side.
func canonicalJSON(data map[string]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return escapeNonASCII(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func escapeNonASCII(raw []byte) []byte {
	ascii := true
	for _, b := range raw {
		if b >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return raw
	}

	var buf bytes.Buffer
	buf.Grow(len(raw))
	for i := 0; i < len(raw); {
		b := raw[i]
		if b < utf8.RuneSelf {
			buf.WriteByte(b)
			i++
			continue
		}
		r, size := utf8.DecodeRune(raw[i:])
		if r > 0xFFFF {
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&buf, `\u%04x\u%04x`, hi, lo)
		} else {
			fmt.Fprintf(&buf, `\u%04x`, r)
		}
		i += size
	}
	return buf.Bytes()
}

// Sign returns the lower-hex MD5 of the canonical JSON body concatenated with
// the shared secret.
func Sign(data map[string]interface{}, secret string) (string, error) {
	raw, err := canonicalJSON(data)
	if err != nil {
		return "", err
	}
	sum := md5.Sum(append(raw, secret...))
	return hex.EncodeToString(sum[:]), nil
}

// VerifySignature checks a callback signature in constant time. The payload
// passed here must already have its sign field removed.
func VerifySignature(data map[string]interface{}, received, secret string) bool {
	expected, err := Sign(data, secret)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(received)) == 1
}
