// Package wireguard renders device sections of the configuration file into
// wg-quick style [Interface] and [Peer] blocks.
package wireguard

import (
	"strconv"
	"strings"

	"github.com/alexisbeaulieu97/wgcm/internal/config"
	wgcmerrors "github.com/alexisbeaulieu97/wgcm/pkg/errors"
)

// Entry is one "Key = Value" line.
type Entry struct {
	Key   string
	Value string
}

// Block is a rendered [Interface] or [Peer] section.
type Block struct {
	Section string
	Comment string
	Entries []Entry
}

func (b Block) String() string {
	var sb strings.Builder
	sb.WriteString("[" + b.Section + "]\n")
	if b.Comment != "" {
		sb.WriteString(b.Comment + "\n")
	}
	for _, e := range b.Entries {
		sb.WriteString(e.Key + " = " + e.Value + "\n")
	}
	return sb.String()
}

// Document is the full configuration of one device.
type Document struct {
	Device string
	Blocks []Block
	// Derived lists peers whose public key was computed from their private
	// key while rendering and written back into the configuration.
	Derived []string
}

func (d Document) String() string {
	parts := make([]string, len(d.Blocks))
	for i, b := range d.Blocks {
		parts[i] = b.String()
	}
	return strings.Join(parts, "\n")
}

func comment(annotation string) string {
	if annotation == "" || strings.HasPrefix(annotation, "#") {
		return annotation
	}
	return "# " + annotation
}

// InterfaceBlock renders the [Interface] section for dev. A private key is
// required.
func InterfaceBlock(dev config.Device, annotation string) (Block, error) {
	if dev.PrivateKey == "" {
		return Block{}, wgcmerrors.NewConfigError(dev.Name, "private key is required for the interface", nil)
	}

	b := Block{Section: "Interface", Comment: comment(annotation)}
	b.Entries = append(b.Entries, Entry{"PrivateKey", dev.PrivateKey})
	if len(dev.Address) > 0 {
		b.Entries = append(b.Entries, Entry{"Address", strings.Join(dev.Address, ", ")})
	}
	if dev.ListenPort > 0 {
		b.Entries = append(b.Entries, Entry{"ListenPort", strconv.Itoa(dev.ListenPort)})
	}
	if len(dev.DNS) > 0 {
		b.Entries = append(b.Entries, Entry{"DNS", strings.Join(dev.DNS, ", ")})
	}
	return b, nil
}

// PeerBlock renders the [Peer] section describing dev to other devices. A
// missing public key is derived from the private key; allowed IPs fall back
// to the device address.
func PeerBlock(dev config.Device, annotation string) (Block, error) {
	publicKey, _, err := resolvePublicKey(dev)
	if err != nil {
		return Block{}, err
	}

	allowed := dev.AllowedIPs
	if len(allowed) == 0 {
		allowed = dev.Address
	}
	if len(allowed) == 0 {
		return Block{}, wgcmerrors.NewConfigError(dev.Name, "cannot get allowed ips or address", nil)
	}

	b := Block{Section: "Peer", Comment: comment(annotation)}
	b.Entries = append(b.Entries,
		Entry{"PublicKey", publicKey},
		Entry{"AllowedIPs", strings.Join(allowed, ", ")},
	)
	if dev.Endpoint != "" {
		b.Entries = append(b.Entries, Entry{"Endpoint", dev.Endpoint})
	}
	if dev.PersistentKeepalive > 0 {
		b.Entries = append(b.Entries, Entry{"PersistentKeepalive", strconv.Itoa(dev.PersistentKeepalive)})
	}
	return b, nil
}

// resolvePublicKey returns the device's public key and whether it had to be
// derived. Keys previously marked as auto generated are re-derived so they
// follow private key changes.
func resolvePublicKey(dev config.Device) (string, bool, error) {
	if dev.PublicKey != "" && !(dev.PublicKeyAutoGenerated && dev.PrivateKey != "") {
		return dev.PublicKey, false, nil
	}
	if dev.PrivateKey == "" {
		return "", false, wgcmerrors.NewConfigError(dev.Name, "cannot get or generate the public key", nil)
	}

	derived, err := PublicKey(dev.PrivateKey)
	if err != nil {
		return "", false, wgcmerrors.NewConfigError(dev.Name, "cannot derive the public key", err)
	}
	return derived, derived != dev.PublicKey, nil
}

// ConfigFor renders the configuration of device: its interface followed by
// a peer block for every other device, or only for peers when non-empty.
// Derived public keys are written back into cfg; saving is up to the caller.
func ConfigFor(cfg *config.Config, device string, peers []string) (Document, error) {
	self, err := cfg.Device(device)
	if err != nil {
		return Document{}, err
	}

	iface, err := InterfaceBlock(self, device)
	if err != nil {
		return Document{}, err
	}
	doc := Document{Device: device, Blocks: []Block{iface}}

	if len(peers) == 0 {
		for _, name := range cfg.Devices() {
			if name != device {
				peers = append(peers, name)
			}
		}
	}

	for _, name := range peers {
		if name == device {
			return Document{}, wgcmerrors.NewConfigError(name, "a device cannot be its own peer", nil)
		}
		peer, err := cfg.Device(name)
		if err != nil {
			return Document{}, err
		}

		publicKey, derived, err := resolvePublicKey(peer)
		if err != nil {
			return Document{}, err
		}
		if derived {
			cfg.Set(name, config.KeyPublicKey, publicKey)
			cfg.Set(name, config.KeyPublicKeyGenerated, "True")
			peer.PublicKey = publicKey
			peer.PublicKeyAutoGenerated = true
			doc.Derived = append(doc.Derived, name)
		}

		block, err := PeerBlock(peer, name)
		if err != nil {
			return Document{}, err
		}
		doc.Blocks = append(doc.Blocks, block)
	}

	return doc, nil
}
