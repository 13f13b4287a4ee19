package config

// Reserved section names. Every other section that is not a plugin section
// describes a WireGuard device.
const (
	SectionDefault   = "DEFAULT"
	SectionExtension = "Extension"
	SectionWireGuard = "WireGuard"
)

// Keys recognised in the [Extension] section.
const (
	KeyPolicy           = "policy"
	KeyPluginPathPrefix = "plugin_path_"
)

// Keys recognised in a device section.
const (
	KeyPrivateKey          = "private key"
	KeyPublicKey           = "public key"
	KeyPublicKeyGenerated  = "public key is auto generated"
	KeyAddress             = "address"
	KeyAllowedIPs          = "allowed ips"
	KeyEndpoint            = "endpoint"
	KeyPersistentKeepalive = "persistent keep alive"
	KeyListenPort          = "listen port"
	KeyDNS                 = "dns"
)

// PluginEntry names a plugin and the directory it is loaded from. Path may
// contain {APP_DIR}-style placeholders and a leading "~".
type PluginEntry struct {
	Name string `validate:"required,plugin_name"`
	Path string
}

// Extension is the decoded [Extension] section.
type Extension struct {
	// Policy is "strict", "graceful" or empty for the environment default.
	Policy  string        `validate:"omitempty,oneof=strict graceful"`
	Plugins []PluginEntry `validate:"dive"`
}

// Device is the decoded form of a device section.
type Device struct {
	Name                   string   `validate:"required"`
	PrivateKey             string   `validate:"omitempty,wg_key"`
	PublicKey              string   `validate:"omitempty,wg_key"`
	PublicKeyAutoGenerated bool
	Address                []string `validate:"dive,cidr|ip"`
	AllowedIPs             []string `validate:"dive,cidr|ip"`
	Endpoint               string   `validate:"omitempty,hostname_port"`
	PersistentKeepalive    int      `validate:"min=0,max=65535"`
	ListenPort             int      `validate:"omitempty,min=1,max=65535"`
	DNS                    []string `validate:"dive,ip"`
}
