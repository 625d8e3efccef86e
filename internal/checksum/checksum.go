// Package checksum computes the integrity fingerprint shared by the sync
// client and the remote authority. Both sides must produce identical strings
// for identical batches.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"tasksync/internal/models"
)

const separator = "|"

// Fingerprint digests a batch's items in order as
// "{client_id}-{operation}-{json(data)}" joined with a fixed separator,
// hashed with SHA-256 and rendered as hex.
func Fingerprint(items []models.BatchItem) (string, error) {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item.Data)
		if err != nil {
			return "", fmt.Errorf("encode item %s: %w", item.ClientID, err)
		}
		parts = append(parts, fmt.Sprintf("%s-%s-%s", item.ClientID, item.Operation, data))
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, separator)))
	return hex.EncodeToString(sum[:]), nil
}

// Verify recomputes the fingerprint and compares it to the expected value.
func Verify(items []models.BatchItem, expected string) (bool, error) {
	actual, err := Fingerprint(items)
	if err != nil {
		return false, err
	}
	return actual == expected, nil
}
