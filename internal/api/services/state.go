package services

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arnavk09/campusswap/internal/utils"
)

// EncodeState packs OAuth round-trip metadata (e.g. the post-login
// redirect) behind a random nonce: "<nonce>.<payload>".
func EncodeState(data map[string]string) (string, error) {
	nonce, err := utils.GenerateSecureToken(16)
	if err != nil {
		return "", fmt.Errorf("failed to generate state nonce: %w", err)
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state data: %w", err)
	}

	return nonce + "." + base64.RawURLEncoding.EncodeToString(payload), nil
}

// DecodeState recovers the metadata from an OAuth state string.
func DecodeState(state string) (map[string]string, error) {
	parts := strings.Split(state, ".")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid state format")
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode state payload: %w", err)
	}

	var data map[string]string
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state JSON: %w", err)
	}
	return data, nil
}
