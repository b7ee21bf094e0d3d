package cpixconfig

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/spf13/pflag"
)

// LogLevels and LogFormats are the values cpixtool accepts for --loglevel
// and --logformat.
var (
	LogLevels  = []string{"debug", "info", "warn", "error"}
	LogFormats = []string{"text", "json"}
)

// ToolConfig is cpixtool's ambient configuration: logging, and the
// manifest/output paths its subcommands share.
type ToolConfig struct {
	LogLevel    string `json:"loglevel"`
	LogFormat   string `json:"logformat"`
	ManifestCfg string `json:"manifest"`
	OutDir      string `json:"outdir"`
}

// DefaultToolConfig is applied before the command line and environment are
// read.
var DefaultToolConfig = ToolConfig{
	LogLevel:  "info",
	LogFormat: "text",
	OutDir:    ".",
}

// LoadToolConfig layers DefaultToolConfig, then f's parsed flags, then
// CPIXTOOL_-prefixed environment variables, matching the precedence every
// koanf-backed CLI in this codebase follows.
func LoadToolConfig(f *pflag.FlagSet) (*ToolConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultToolConfig, "json"), nil); err != nil {
		return nil, fmt.Errorf("cpixconfig: load defaults: %w", err)
	}

	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("cpixconfig: load flags: %w", err)
	}

	if err := k.Load(env.Provider("CPIXTOOL_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "CPIXTOOL_")), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("cpixconfig: load environment: %w", err)
	}

	var cfg ToolConfig
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("cpixconfig: unmarshal: %w", err)
	}
	return &cfg, nil
}
