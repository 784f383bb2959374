package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the entities that carry generated IDs.
const (
	PrefixUser    = "user"
	PrefixList    = "list"
	PrefixItem    = "item"
	PrefixSession = "session"
)

// stateLength is the size of the random value used to bind an OAuth redirect to its callback.
const stateLength = 32

// Generate creates a prefixed unique ID using NanoID
// Format: prefix-nanoid (e.g., "list-V1StGXR8_Z5jdHi6B-myT")
//
// NanoIDs are URL-friendly, compact (21 characters vs UUID's 36),
// and use a larger alphabet for better entropy per character.
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// State returns an unprefixed random value for the OAuth state parameter.
func State() (string, error) {
	s, err := gonanoid.New(stateLength)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return s, nil
}
