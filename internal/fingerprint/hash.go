// Package fingerprint derives the soft identity used for dedup, audio naming and caches.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Size is the number of hex characters in a content hash.
const Size = 12

// Normalize lowercases text and collapses runs of whitespace.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Hash returns a case- and whitespace-insensitive fingerprint of text.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])[:Size]
}

// AudioName is the file name of synthesized audio for text.
func AudioName(text string) string {
	return "audio_" + Hash(text) + ".mp3"
}
