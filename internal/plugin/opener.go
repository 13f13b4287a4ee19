package plugin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	goplugin "plugin"
)

// SymbolName is the exported identifier a shared-object plugin must define:
// either a value implementing Plugin or a func() Plugin.
const SymbolName = "Plugin"

// opener loads a plugin from a file on disk.
type opener func(file string) (Plugin, error)

func sharedObjectPath(dir, name string) string {
	return filepath.Join(dir, name+".so")
}

func sharedObjectExists(file string) bool {
	info, err := os.Stat(file)
	return err == nil && !info.IsDir()
}

func openSharedObject(file string) (Plugin, error) {
	so, err := goplugin.Open(file)
	if err != nil {
		return nil, err
	}

	sym, err := so.Lookup(SymbolName)
	if err != nil {
		return nil, &MissingDeclarationError{Field: SymbolName}
	}

	return pluginFromSymbol(sym)
}

func pluginFromSymbol(sym any) (Plugin, error) {
	switch v := sym.(type) {
	case Plugin:
		return v, nil
	case func() Plugin:
		p := v()
		if p == nil {
			return nil, errors.New("constructor returned nil plugin")
		}
		return p, nil
	case *Plugin:
		if v == nil || *v == nil {
			return nil, errors.New("exported Plugin variable is nil")
		}
		return *v, nil
	default:
		return nil, fmt.Errorf("symbol %s has type %T, want plugin.Plugin or func() plugin.Plugin", SymbolName, sym)
	}
}
