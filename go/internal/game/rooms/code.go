package rooms

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Room codes are short, human-enterable and case-insensitive. The alphabet
// drops 0/O/1/I to keep codes readable off a projector.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

// NewRoomCode generates a random room code.
func NewRoomCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate room code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// NormalizeCode maps user input onto the canonical code form.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
