// Chronomap - Temporal-Spatial Query Engine for the Postime Time Machine
// Copyright 2026 Postime Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/postime/chronomap

package engine

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// ErrInvalidCursor indicates a pagination cursor that cannot be decoded.
// Always a caller error, never a server fault.
var ErrInvalidCursor = errors.New("invalid cursor")

// cursor is the decoded pagination position. Only the last returned ID is
// carried; results are sorted by ID so the next page starts strictly after it.
type cursor struct {
	LastID string `json:"last_id"`
}

// encodeCursor serializes a pagination position as opaque base64url JSON.
func encodeCursor(lastID string) string {
	data, err := json.Marshal(cursor{LastID: lastID})
	if err != nil {
		// cursor contains only a string; Marshal cannot fail
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

// decodeCursor parses an encoded cursor back into the last returned ID.
// An empty cursor means "from the start".
func decodeCursor(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}

	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	var c cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return c.LastID, nil
}
