package wireguard

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"github.com/alexisbeaulieu97/wgcm/internal/config"
	wgcmerrors "github.com/alexisbeaulieu97/wgcm/pkg/errors"
)

const (
	serverPrivate = "yAnz5TF+lXXJte14tji3zlMNq+hd2rYUIgJBgB3fBmk="
	serverPublic  = "HIgo9xNzJMWLKASShiTqIybxZ0U3wGLiUeJ1PKf8ykw="
	laptopPublic  = "xTIBA5rboUvnH4htodjb6e697QjLERt1NAB4mZqp8Dg="
)

const sampleINI = `[Extension]
plugin_path_gpg = {APP_DIR}/plugins

[WireGuard]
path = wg

[gpg]
path = gpg

[server]
private key = ` + serverPrivate + `
address = 10.0.0.1/24
listen port = 51820
endpoint = vpn.example.com:51820

[laptop]
public key = ` + laptopPublic + `
address = 10.0.0.2/32
dns = 1.1.1.1, 9.9.9.9
persistent keep alive = 25
`

func parse(t *testing.T, ini string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(ini))
	require.NoError(t, err)
	return cfg
}

func TestKeys(t *testing.T) {
	t.Parallel()

	pub, err := PublicKey(serverPrivate)
	require.NoError(t, err)
	require.Equal(t, serverPublic, pub)

	pair, err := GenerateKeyPair()
	require.NoError(t, err)
	derived, err := PublicKey(pair.PrivateKey)
	require.NoError(t, err)
	require.Equal(t, pair.PublicKey, derived)

	private, err := GeneratePrivateKey()
	require.NoError(t, err)
	require.Len(t, private, 44)

	_, err = PublicKey("short")
	require.Error(t, err)
}

func TestInterfaceBlock(t *testing.T) {
	t.Parallel()

	dev := config.Device{
		Name:       "server",
		PrivateKey: serverPrivate,
		Address:    []string{"10.0.0.1/24", "fd00::1/64"},
		ListenPort: 51820,
		DNS:        []string{"1.1.1.1"},
	}

	b, err := InterfaceBlock(dev, "server")
	require.NoError(t, err)
	require.Equal(t, "[Interface]\n# server\nPrivateKey = "+serverPrivate+
		"\nAddress = 10.0.0.1/24, fd00::1/64\nListenPort = 51820\nDNS = 1.1.1.1\n", b.String())

	_, err = InterfaceBlock(config.Device{Name: "laptop"}, "")
	var cfgErr *wgcmerrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "laptop", cfgErr.Device)
}

func TestPeerBlock(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		dev        config.Device
		annotation string
		want       string
		wantErr    bool
	}{
		{
			name:       "explicit allowed ips",
			dev:        config.Device{Name: "laptop", PublicKey: laptopPublic, AllowedIPs: []string{"10.0.0.2/32"}, PersistentKeepalive: 25},
			annotation: "laptop",
			want:       "[Peer]\n# laptop\nPublicKey = " + laptopPublic + "\nAllowedIPs = 10.0.0.2/32\nPersistentKeepalive = 25\n",
		},
		{
			name:       "address fallback and derived key",
			dev:        config.Device{Name: "server", PrivateKey: serverPrivate, Address: []string{"10.0.0.1/24"}, Endpoint: "vpn.example.com:51820"},
			annotation: "# primary",
			want:       "[Peer]\n# primary\nPublicKey = " + serverPublic + "\nAllowedIPs = 10.0.0.1/24\nEndpoint = vpn.example.com:51820\n",
		},
		{
			name:    "no keys",
			dev:     config.Device{Name: "ghost", Address: []string{"10.0.0.9/32"}},
			wantErr: true,
		},
		{
			name:    "no addresses",
			dev:     config.Device{Name: "ghost", PublicKey: laptopPublic},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b, err := PeerBlock(tc.dev, tc.annotation)
			if tc.wantErr {
				var cfgErr *wgcmerrors.ConfigError
				require.ErrorAs(t, err, &cfgErr)
				require.Equal(t, tc.dev.Name, cfgErr.Device)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, b.String())
		})
	}
}

func TestConfigForServer(t *testing.T) {
	t.Parallel()

	cfg := parse(t, sampleINI)

	doc, err := ConfigFor(cfg, "server", nil)
	require.NoError(t, err)
	require.Empty(t, doc.Derived)
	require.Len(t, doc.Blocks, 2)
	require.Equal(t, "Interface", doc.Blocks[0].Section)
	require.Equal(t, "Peer", doc.Blocks[1].Section)
	require.Equal(t, "# laptop", doc.Blocks[1].Comment)
	require.Contains(t, doc.String(), "PublicKey = "+laptopPublic)
	require.Contains(t, doc.String(), "ListenPort = 51820\n\n[Peer]")
}

func TestConfigForDerivesAndWritesBack(t *testing.T) {
	t.Parallel()

	cfg := parse(t, sampleINI+"\n[tablet]\nprivate key = "+serverPrivate+"\naddress = 10.0.0.3/32\n")

	// The laptop has no private key, so it cannot have an interface.
	_, err := ConfigFor(cfg, "laptop", nil)
	var cfgErr *wgcmerrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)

	doc, err := ConfigFor(cfg, "tablet", []string{"server"})
	require.NoError(t, err)
	require.Equal(t, []string{"server"}, doc.Derived)
	require.Len(t, doc.Blocks, 2)

	got, ok := cfg.Get("server", config.KeyPublicKey)
	require.True(t, ok)
	require.Equal(t, serverPublic, got)
	flag, ok := cfg.Get("server", config.KeyPublicKeyGenerated)
	require.True(t, ok)
	require.Equal(t, "True", flag)

	// A second render finds the stored key and derives nothing.
	doc, err = ConfigFor(cfg, "tablet", []string{"server"})
	require.NoError(t, err)
	require.Empty(t, doc.Derived)
}

func TestConfigForErrors(t *testing.T) {
	t.Parallel()

	cfg := parse(t, sampleINI)

	cases := []struct {
		name   string
		device string
		peers  []string
		dev    string
	}{
		{name: "unknown device", device: "phone", dev: "phone"},
		{name: "unknown peer", device: "server", peers: []string{"phone"}, dev: "phone"},
		{name: "self peer", device: "server", peers: []string{"server"}, dev: "server"},
		{name: "reserved peer", device: "server", peers: []string{"WireGuard"}, dev: "WireGuard"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := ConfigFor(cfg, tc.device, tc.peers)
			var cfgErr *wgcmerrors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			require.Equal(t, tc.dev, cfgErr.Device)
		})
	}
}

func TestStatusFromDevice(t *testing.T) {
	t.Parallel()

	priv, err := wgtypes.ParseKey(serverPrivate)
	require.NoError(t, err)
	peerKey, err := wgtypes.ParseKey(laptopPublic)
	require.NoError(t, err)

	_, allowed, err := net.ParseCIDR("10.0.0.2/32")
	require.NoError(t, err)
	handshake := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	st := statusFromDevice(&wgtypes.Device{
		Name:       "wg0",
		Type:       wgtypes.LinuxKernel,
		PrivateKey: priv,
		PublicKey:  priv.PublicKey(),
		ListenPort: 51820,
		Peers: []wgtypes.Peer{{
			PublicKey:         peerKey,
			Endpoint:          &net.UDPAddr{IP: net.ParseIP("203.0.113.7"), Port: 51820},
			AllowedIPs:        []net.IPNet{*allowed},
			LastHandshakeTime: handshake,
			ReceiveBytes:      10,
			TransmitBytes:     20,
		}},
	})

	assert.Equal(t, "wg0", st.Name)
	assert.Equal(t, serverPublic, st.PublicKey)
	assert.Equal(t, 51820, st.ListenPort)
	require.Len(t, st.Peers, 1)
	assert.Equal(t, "203.0.113.7:51820", st.Peers[0].Endpoint)
	assert.Equal(t, []string{"10.0.0.2/32"}, st.Peers[0].AllowedIPs)
	assert.Equal(t, handshake, st.Peers[0].LastHandshake)

	AnnotatePeers([]InterfaceStatus{st}, parse(t, sampleINI))
	assert.Equal(t, "laptop", st.Peers[0].Device)
}
