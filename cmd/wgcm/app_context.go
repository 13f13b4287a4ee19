package main

import (
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/wgcm/internal/config"
	"github.com/alexisbeaulieu97/wgcm/internal/logger"
	"github.com/alexisbeaulieu97/wgcm/internal/paths"
	"github.com/alexisbeaulieu97/wgcm/internal/plugin"
)

// AppContext bundles the state a command needs: resolved paths, the parsed
// configuration and a logger.
type AppContext struct {
	Paths  paths.Map
	Config *config.Config
	Log    *logger.Logger
}

func newAppContext(cmd *cobra.Command, flags *rootFlags) (*AppContext, error) {
	level := "info"
	if flags.verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{
		Level:         level,
		HumanReadable: isTerminal(cmd.ErrOrStderr()),
		Writer:        cmd.ErrOrStderr(),
		Component:     "wgcm",
	})
	if err != nil {
		return nil, newCommandError(cmd.Name(), "creating logger", err, "Check the --verbose flag.")
	}

	pm, err := paths.FromEnv()
	if err != nil {
		return nil, newCommandError(cmd.Name(), "resolving paths", err, "Check the WGCM_APP_DIR, WGCM_CONFIG_DIR and WGCM_CONFIG_FILE variables.")
	}
	if flags.configPath != "" {
		if pm, err = pm.WithConfigFile(flags.configPath); err != nil {
			return nil, newCommandError(cmd.Name(), "resolving --config", err, "Pass a valid file path to --config.")
		}
	}

	cfg, created, err := config.Bootstrap(pm.ConfigFile)
	if err != nil {
		return nil, newCommandError(cmd.Name(), "loading configuration "+pm.ConfigFile, err, "Fix the file or remove it to regenerate the defaults.")
	}
	if created {
		log.Info("wrote default configuration", "path", pm.ConfigFile)
	}
	cfg.SetPaths(pm.Values())
	cfg.SetLogger(log.With("component", "config"))

	return &AppContext{Paths: pm, Config: cfg, Log: log}, nil
}

// OpenPlugins loads the plugins declared in [Extension] under the configured
// policy.
func (a *AppContext) OpenPlugins() (*plugin.Loader, map[string]*plugin.Handle, error) {
	ext, err := a.Config.Extension()
	if err != nil {
		return nil, nil, err
	}

	policy, err := plugin.ParseLoadPolicy(ext.Policy)
	if err != nil {
		return nil, nil, err
	}

	loader := plugin.NewLoader(
		&plugin.LoaderConfig{Policy: policy, SharedObjects: true},
		plugin.Environment{
			HostVersion: hostVersion(),
			Paths:       a.Paths.Values(),
			Sections:    a.Config,
		},
		a.Log,
	)

	handles, err := loader.LoadAll(ext.Plugins)
	if err != nil {
		return nil, nil, err
	}
	return loader, handles, nil
}

// pluginHandle opens the configured plugins and returns the named one.
func (a *AppContext) pluginHandle(name string) (*plugin.Loader, *plugin.Handle, error) {
	loader, _, err := a.OpenPlugins()
	if err != nil {
		return nil, nil, err
	}
	h, err := loader.Get(name)
	if err != nil {
		return nil, nil, err
	}
	return loader, h, nil
}
