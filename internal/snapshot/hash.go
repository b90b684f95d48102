package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the
// encoding to change without colliding with old journals.
const (
	DomainState = "scenesync/state/v1"
	DomainFrame = "scenesync/frame/v1"
)

// Hash computes a SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte keeps the domain/data boundary unambiguous.
func Hash(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StateHash returns the canonical hash of a captured state.
func StateHash(s State) (string, error) {
	canonical, err := MarshalCanonical(s.Value())
	if err != nil {
		return "", fmt.Errorf("StateHash: failed to marshal: %w", err)
	}
	return Hash(DomainState, canonical), nil
}

// FrameHash chains a frame onto the previous frame's hash, so a journal
// session can be verified without storing every state.
func FrameHash(prev string, frame int64, stateHash string) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"prev":  prev,
		"frame": frame,
		"state": stateHash,
	})
	if err != nil {
		return "", fmt.Errorf("FrameHash: failed to marshal: %w", err)
	}
	return Hash(DomainFrame, canonical), nil
}
