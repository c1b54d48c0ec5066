package config

import (
	"github.com/spf13/pflag"
)

// Flags define CLI flags shared by the commands.
type Flags struct {
	// Config is the path to the config file
	Config string

	// Listen overrides http.address when set.
	Listen string

	Version bool
}

// ParseFlags parses args (without the program name) into Flags.
func ParseFlags(name string, args []string) (Flags, error) {
	var f Flags

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVarP(&f.Config, "config", "c", "", "path to config file (default "+DefaultConfigPath+")")
	fs.StringVar(&f.Listen, "listen", "", "address to serve the HTTP API on, overrides http.address")
	fs.BoolVar(&f.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	return f, nil
}

// GetConfigPath returns the path given via --config, or DefaultConfigPath.
func (f Flags) GetConfigPath() string {
	if f.Config == "" {
		return DefaultConfigPath
	}

	return f.Config
}

// IsExplicitConfigPath indicates whether the configuration file path was explicitly set.
func (f Flags) IsExplicitConfigPath() bool {
	return f.Config != ""
}
