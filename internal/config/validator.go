package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	wgcmerrors "github.com/alexisbeaulieu97/wgcm/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	pluginNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
)

// wgKeyLen is the size of a Curve25519 key in bytes.
const wgKeyLen = 32

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("plugin_name", func(fl validator.FieldLevel) bool {
			return pluginNamePattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("wg_key", func(fl validator.FieldLevel) bool {
			raw, err := base64.StdEncoding.DecodeString(fl.Field().String())
			return err == nil && len(raw) == wgKeyLen
		})

		validateInst = v
	})

	return validateInst
}

// ValidateExtension checks the decoded [Extension] section.
func ValidateExtension(ext Extension) error {
	if err := validatorInstance().Struct(ext); err != nil {
		return convertValidationError(SectionExtension, err)
	}

	seen := make(map[string]struct{}, len(ext.Plugins))
	for _, p := range ext.Plugins {
		if _, dup := seen[p.Name]; dup {
			return wgcmerrors.NewValidationError(SectionExtension+"."+KeyPluginPathPrefix+p.Name, "plugin declared twice", nil)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

// ValidateDevice checks a decoded device section.
func ValidateDevice(dev Device) error {
	if err := validatorInstance().Struct(dev); err != nil {
		return convertValidationError(dev.Name, err)
	}
	return nil
}

func convertValidationError(section string, err error) error {
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		ve := ves[0]
		field := section + "." + iniFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return wgcmerrors.NewValidationError(field, msg, err)
	}

	return wgcmerrors.NewValidationError(section, err.Error(), err)
}

var iniKeys = map[string]string{
	"PrivateKey":             KeyPrivateKey,
	"PublicKey":              KeyPublicKey,
	"PublicKeyAutoGenerated": KeyPublicKeyGenerated,
	"Address":                KeyAddress,
	"AllowedIPs":             KeyAllowedIPs,
	"Endpoint":               KeyEndpoint,
	"PersistentKeepalive":    KeyPersistentKeepalive,
	"ListenPort":             KeyListenPort,
	"DNS":                    KeyDNS,
	"Policy":                 KeyPolicy,
}

// iniFieldName maps a struct field back to the key a user writes, keeping
// any slice index ("address[1]").
func iniFieldName(fe validator.FieldError) string {
	field := fe.StructField()
	index := ""
	if i := strings.IndexByte(field, '['); i >= 0 {
		field, index = field[:i], field[i:]
	}
	if key, ok := iniKeys[field]; ok {
		return key + index
	}
	return strings.ToLower(field) + index
}
