package cmd

import (
	"github.com/apex/log"
	"github.com/zig-tools/zigup/pkg/config"
	"github.com/zig-tools/zigup/pkg/index"
	"github.com/zig-tools/zigup/pkg/install"
)

// settings are the effective install parameters after merging flags,
// the optional config file, and built-in defaults (in that order).
type settings struct {
	indexURL string
	system   install.System
	skipZLS  bool
}

// resolveSettings loads the config file and applies precedence:
// flag > file > default.
func resolveSettings() (settings, error) {
	cfg, err := config.LoadOrDefault(configFile)
	if err != nil {
		return settings{}, err
	}
	log.Debugf("config: %+v", *cfg)

	s := settings{
		indexURL: firstNonEmpty(installIndexURL, cfg.IndexURL, index.DefaultURL),
		system: install.NewSystem(
			firstNonEmpty(installRoot, cfg.InstallRoot),
			firstNonEmpty(installBinDir, cfg.BinDir),
		),
		skipZLS: installSkipZLS || cfg.SkipZLS,
	}
	return s, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
