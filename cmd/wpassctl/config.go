package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configFileName = "wpassctl"
	configFileType = "yaml"

	cfgKeyAddr    = "addr"
	cfgKeyTimeout = "timeout"
	cfgKeySave    = "save"

	defaultAddr    = "127.0.0.1:7070"
	defaultTimeout = 30 * time.Second
)

// settings holds the resolved connection options for the running command.
var settings struct {
	addr    string
	timeout time.Duration
	save    bool
}

// loadSettings resolves options with the precedence flag > environment >
// config file > default. The config file is --config, or wpassctl.yaml in
// the user config directory when present.
func loadSettings(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	v.SetDefault(cfgKeyAddr, defaultAddr)
	v.SetDefault(cfgKeyTimeout, defaultTimeout)
	v.SetDefault(cfgKeySave, false)

	if err := v.BindEnv(cfgKeyAddr, "WPASS_LINK_ADDR"); err != nil {
		return err
	}
	if err := v.BindEnv(cfgKeyTimeout, "WPASSCTL_TIMEOUT"); err != nil {
		return err
	}

	flags := cmd.Root().PersistentFlags()
	for _, key := range []string{cfgKeyAddr, cfgKeyTimeout, cfgKeySave} {
		if err := v.BindPFlag(key, flags.Lookup(key)); err != nil {
			return err
		}
	}

	if flagConfig != "" {
		v.SetConfigFile(flagConfig)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "wpass"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if flagConfig != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	settings.addr = v.GetString(cfgKeyAddr)
	settings.timeout = v.GetDuration(cfgKeyTimeout)
	settings.save = v.GetBool(cfgKeySave)
	if settings.timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", settings.timeout)
	}
	return nil
}
