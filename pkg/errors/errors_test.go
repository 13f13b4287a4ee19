package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseErrorWrapsUnderlying(t *testing.T) {
	t.Parallel()

	underlying := fmt.Errorf("unclosed section header")
	err := NewParseError("config.ini", 12, underlying)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "config.ini", parseErr.Path)
	require.Equal(t, 12, parseErr.Line)
	require.True(t, stdErrors.Is(err, underlying))
	require.Equal(t, "parse error: config.ini:12: unclosed section header", err.Error())
}

func TestParseErrorWithoutLine(t *testing.T) {
	t.Parallel()

	err := NewParseError("config.ini", 0, stdErrors.New("permission denied"))
	require.Equal(t, "parse error: config.ini: permission denied", err.Error())
}

func TestValidationErrorCarriesField(t *testing.T) {
	t.Parallel()

	err := NewValidationError("laptop.address", "must be an IP address or CIDR", nil)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "laptop.address", validationErr.Field)
	require.Contains(t, err.Error(), "must be an IP address or CIDR")
}

func TestEncryptionErrorIncludesCapability(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("message authentication failed")
	err := NewEncryptionError("XChaCha20-Poly1305", "decrypt", underlying)

	var encErr *EncryptionError
	require.ErrorAs(t, err, &encErr)
	require.Equal(t, "XChaCha20-Poly1305", encErr.Capability)
	require.True(t, stdErrors.Is(err, underlying))
	require.Equal(t, "decrypt error [XChaCha20-Poly1305]: message authentication failed", err.Error())
}

func TestConfigErrorMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "message only",
			err:  NewConfigError("laptop", "private key is missing", nil),
			want: "wireguard config error [laptop]: private key is missing",
		},
		{
			name: "cause only",
			err:  NewConfigError("laptop", "", stdErrors.New("bad key")),
			want: "wireguard config error [laptop]: bad key",
		},
		{
			name: "message and cause",
			err:  NewConfigError("", "derive public key", stdErrors.New("bad key")),
			want: "wireguard config error: derive public key: bad key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, tt.err.Error())
		})
	}
}
