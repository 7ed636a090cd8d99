// Package codec provides the base64 wire encoding used for every opaque
// byte field that crosses the REST/WebSocket boundary (public keys,
// ciphertext, nonces, signaling payloads). The server never interprets the
// decoded bytes; it only stores and forwards them.
package codec

import "encoding/base64"

// Encode returns the standard base64 text form of b.
func Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Decode parses standard base64 text back into bytes. An empty string
// decodes to an empty (non-nil-length-zero) slice.
func Decode(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
