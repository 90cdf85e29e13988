package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/elementio/elementio/internal/errs"
)

// EnvPrefix namespaces every config key as an environment variable
// override, e.g. metrics.addr -> ELEMENTIO_METRICS_ADDR.
const EnvPrefix = "ELEMENTIO"

// Load reads the graph document from path (YAML or JSON, detected by
// viper from the extension), layers ELEMENTIO_-prefixed env
// overrides on top, and finally honors DC_LOG for the log level
// if the environment sets it — DC_LOG always wins since it is the
// spec's own override knob, independent of this runtime's ambient
// config layering.
func Load(path string) (*Document, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", errs.ErrConfig, path, err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var doc Document
	if err := v.Unmarshal(&doc); err != nil {
		return nil, fmt.Errorf("%w: unmarshalling %s: %v", errs.ErrConfig, path, err)
	}

	if level := os.Getenv("DC_LOG"); level != "" {
		doc.Log.Level = level
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.compress", true)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
}
