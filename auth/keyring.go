// Package auth provides a high-level API for persisting and retrieving backend credentials from the system keyring.
package auth

import (
	"github.com/zalando/go-keyring"
)

const service = "audiocontrol3"

// SetSecret persists a backend credential (e.g., the MPD password) to the system keyring.
func SetSecret(playerID, secret string) error {
	return keyring.Set(service, playerID, secret)
}

// GetSecret retrieves a backend credential from the system keyring.
func GetSecret(playerID string) (string, error) {
	return keyring.Get(service, playerID)
}

// DeleteSecret removes a backend credential from the system keyring.
func DeleteSecret(playerID string) error {
	return keyring.Delete(service, playerID)
}
