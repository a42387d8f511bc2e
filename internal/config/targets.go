package config

import (
	"fmt"

	"github.com/couchcryptid/pizzeria-traffic/internal/domain"
	"github.com/spf13/viper"
)

type targetsFile struct {
	Targets []domain.Target `mapstructure:"targets"`
}

// LoadTargets reads the target registry from a YAML, JSON or TOML file:
//
//	targets:
//	  - name: Pizzeria Paradiso
//	    url: https://www.google.com/maps/search/?api=1&query=...
//
// The returned error wraps domain.ErrConfig for both unreadable files and
// invalid registries.
func LoadTargets(path string) (domain.Registry, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return domain.Registry{}, fmt.Errorf("%w: read targets file %s: %v", domain.ErrConfig, path, err)
	}

	var f targetsFile
	if err := v.Unmarshal(&f); err != nil {
		return domain.Registry{}, fmt.Errorf("%w: decode targets file %s: %v", domain.ErrConfig, path, err)
	}
	return domain.NewRegistry(f.Targets)
}
