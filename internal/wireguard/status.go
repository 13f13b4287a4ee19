package wireguard

import (
	"fmt"
	"sort"
	"time"

	"golang.zx2c4.com/wireguard/wgctrl"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"github.com/alexisbeaulieu97/wgcm/internal/config"
)

// InterfaceStatus is a snapshot of a live WireGuard interface.
type InterfaceStatus struct {
	Name       string       `yaml:"name"`
	Type       string       `yaml:"type"`
	PublicKey  string       `yaml:"public_key"`
	ListenPort int          `yaml:"listen_port"`
	Peers      []PeerStatus `yaml:"peers"`
}

// PeerStatus is a snapshot of one peer of a live interface. Device is the
// configured device owning the peer's public key, if any.
type PeerStatus struct {
	Device        string    `yaml:"device,omitempty"`
	PublicKey     string    `yaml:"public_key"`
	Endpoint      string    `yaml:"endpoint,omitempty"`
	AllowedIPs    []string  `yaml:"allowed_ips"`
	LastHandshake time.Time `yaml:"last_handshake,omitempty"`
	ReceiveBytes  int64     `yaml:"rx_bytes"`
	TransmitBytes int64     `yaml:"tx_bytes"`
}

// Inspect reads the named interface, or every interface when name is empty,
// from the kernel or userspace WireGuard implementation.
func Inspect(name string) ([]InterfaceStatus, error) {
	client, err := wgctrl.New()
	if err != nil {
		return nil, fmt.Errorf("open wireguard control: %w", err)
	}
	defer client.Close()

	var devices []*wgtypes.Device
	if name != "" {
		d, err := client.Device(name)
		if err != nil {
			return nil, fmt.Errorf("read interface %s: %w", name, err)
		}
		devices = []*wgtypes.Device{d}
	} else {
		devices, err = client.Devices()
		if err != nil {
			return nil, fmt.Errorf("list interfaces: %w", err)
		}
	}

	out := make([]InterfaceStatus, 0, len(devices))
	for _, d := range devices {
		out = append(out, statusFromDevice(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func statusFromDevice(d *wgtypes.Device) InterfaceStatus {
	st := InterfaceStatus{
		Name:       d.Name,
		Type:       d.Type.String(),
		PublicKey:  d.PublicKey.String(),
		ListenPort: d.ListenPort,
	}
	for _, p := range d.Peers {
		peer := PeerStatus{
			PublicKey:     p.PublicKey.String(),
			LastHandshake: p.LastHandshakeTime,
			ReceiveBytes:  p.ReceiveBytes,
			TransmitBytes: p.TransmitBytes,
		}
		if p.Endpoint != nil {
			peer.Endpoint = p.Endpoint.String()
		}
		for _, ip := range p.AllowedIPs {
			peer.AllowedIPs = append(peer.AllowedIPs, ip.String())
		}
		st.Peers = append(st.Peers, peer)
	}
	return st
}

// AnnotatePeers fills PeerStatus.Device by matching public keys against the
// devices in cfg. Devices that fail to decode are ignored.
func AnnotatePeers(statuses []InterfaceStatus, cfg *config.Config) {
	owners := make(map[string]string)
	for _, name := range cfg.Devices() {
		dev, err := cfg.Device(name)
		if err != nil {
			continue
		}
		key, _, err := resolvePublicKey(dev)
		if err != nil {
			continue
		}
		owners[key] = name
	}

	for i := range statuses {
		for j := range statuses[i].Peers {
			statuses[i].Peers[j].Device = owners[statuses[i].Peers[j].PublicKey]
		}
	}
}
