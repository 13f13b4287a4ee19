package main

// Blank imports ensure plugin init() registration runs for the CLI binary.
import (
	_ "github.com/alexisbeaulieu97/wgcm/internal/plugins/gpg"
	_ "github.com/alexisbeaulieu97/wgcm/internal/plugins/secretbox"
	_ "github.com/alexisbeaulieu97/wgcm/internal/plugins/v2ray"
)
