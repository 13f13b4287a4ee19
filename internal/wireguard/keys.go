package wireguard

import (
	"fmt"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// KeyPair is a base64-encoded Curve25519 key pair.
type KeyPair struct {
	PrivateKey string
	PublicKey  string
}

// GeneratePrivateKey returns a new random private key.
func GeneratePrivateKey() (string, error) {
	key, err := wgtypes.GeneratePrivateKey()
	if err != nil {
		return "", fmt.Errorf("generate private key: %w", err)
	}
	return key.String(), nil
}

// GenerateKeyPair returns a new private key and its public key.
func GenerateKeyPair() (KeyPair, error) {
	key, err := wgtypes.GeneratePrivateKey()
	if err != nil {
		return KeyPair{}, fmt.Errorf("generate private key: %w", err)
	}
	return KeyPair{PrivateKey: key.String(), PublicKey: key.PublicKey().String()}, nil
}

// PublicKey derives the public key for a base64-encoded private key.
func PublicKey(privateKey string) (string, error) {
	key, err := wgtypes.ParseKey(privateKey)
	if err != nil {
		return "", fmt.Errorf("parse private key: %w", err)
	}
	return key.PublicKey().String(), nil
}
