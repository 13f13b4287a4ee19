// Package secretbox provides the "secretbox" built-in plugin: passphrase
// based authenticated encryption that needs no external binary.
package secretbox

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/alexisbeaulieu97/wgcm/internal/plugin"
	wgcmerrors "github.com/alexisbeaulieu97/wgcm/pkg/errors"
)

const (
	// Name is the plugin name and the name of its config section.
	Name = "secretbox"
	// Capability is the encryption type the plugin offers.
	Capability = "XChaCha20-Poly1305"

	version  = "0.1.0"
	requires = ">=0.1.0"
)

// Sealed payloads are magic || salt || nonce || ciphertext. The magic doubles
// as additional authenticated data.
var magic = []byte("WGCM1")

const (
	saltSize = 16

	kdfTime    = 1
	kdfMemory  = 64 * 1024
	kdfThreads = 4
)

// ErrMalformed is returned when a payload does not carry the sealed framing.
var ErrMalformed = errors.New("payload is not a secretbox envelope")

// ErrAuthentication is returned when a payload fails to open, usually
// because the passphrase is wrong.
var ErrAuthentication = errors.New("message authentication failed")

func init() {
	plugin.MustRegisterBuiltin(Name, New)
}

// Plugin seals payloads with XChaCha20-Poly1305 under an Argon2id key.
type Plugin struct {
	random io.Reader
}

// New returns the secretbox plugin.
func New() plugin.Plugin {
	return &Plugin{random: rand.Reader}
}

// PluginMetadata implements plugin.Plugin.
func (p *Plugin) PluginMetadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        Name,
		Version:     version,
		Requires:    requires,
		Description: "XChaCha20-Poly1305 with an Argon2id passphrase key",
	}
}

// EncryptTypes implements plugin.EncryptProvider.
func (p *Plugin) EncryptTypes() map[string]*plugin.Capability {
	params := []plugin.Parameter{
		{
			Name:       "passphrase",
			Default:    plugin.Template("{secretbox.passphrase}"),
			Helper:     "passphrase the key is derived from",
			BeforePass: requirePassphrase,
		},
		{
			Name:    "payload",
			Default: plugin.FromContext(plugin.ContextKeyPayload),
		},
	}

	return map[string]*plugin.Capability{
		Capability: {
			Description: "built-in authenticated encryption",
			Phases: map[string]plugin.Phase{
				plugin.PhaseEncrypt: {Func: p.encrypt, Params: params},
				plugin.PhaseDecrypt: {Func: p.decrypt, Params: params},
			},
		},
	}
}

func (p *Plugin) encrypt(_ context.Context, args plugin.Args) (any, error) {
	out, err := Seal(p.random, args.Bytes("passphrase"), args.Bytes("payload"))
	if err != nil {
		return nil, wgcmerrors.NewEncryptionError(Capability, plugin.PhaseEncrypt, err)
	}
	return out, nil
}

func (p *Plugin) decrypt(_ context.Context, args plugin.Args) (any, error) {
	out, err := Open(args.Bytes("passphrase"), args.Bytes("payload"))
	if err != nil {
		return nil, wgcmerrors.NewEncryptionError(Capability, plugin.PhaseDecrypt, err)
	}
	return out, nil
}

// Seal encrypts plaintext under passphrase using randomness from r.
func Seal(r io.Reader, passphrase, plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(r, salt); err != nil {
		return nil, fmt.Errorf("read salt: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(r, nonce); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}

	aead, err := chacha20poly1305.NewX(deriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(magic)+saltSize+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, magic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, magic), nil
}

// Open reverses Seal.
func Open(passphrase, sealed []byte) ([]byte, error) {
	header := len(magic) + saltSize + chacha20poly1305.NonceSizeX
	if len(sealed) < header+chacha20poly1305.Overhead || !bytes.HasPrefix(sealed, magic) {
		return nil, ErrMalformed
	}

	salt := sealed[len(magic) : len(magic)+saltSize]
	nonce := sealed[len(magic)+saltSize : header]

	aead, err := chacha20poly1305.NewX(deriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}

	plain, err := aead.Open(nil, nonce, sealed[header:], magic)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plain, nil
}

func deriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, kdfTime, kdfMemory, kdfThreads, chacha20poly1305.KeySize)
}

func requirePassphrase(v any) (any, error) {
	switch s := v.(type) {
	case string:
		if s == "" {
			return nil, errors.New("passphrase is empty; set [secretbox] passphrase or pass --set passphrase=...")
		}
	case []byte:
		if len(s) == 0 {
			return nil, errors.New("passphrase is empty")
		}
	default:
		return nil, fmt.Errorf("passphrase has unsupported type %T", v)
	}
	return v, nil
}
