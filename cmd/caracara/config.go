// Config loading for the caracara CLI.
package main

import (
	"fmt"

	"github.com/spf13/viper"
)

const (
	configFileName = ".caracara"
	configFileType = "yaml"

	cfgKeyClientID     = "client_id"
	cfgKeyClientSecret = "client_secret"
	cfgKeyCloud        = "cloud"
	cfgKeyLogLevel     = "log_level"
)

// loadConfig reads the config file and environment using Viper. Environment
// variables use the FALCON_ prefix, e.g. FALCON_CLIENT_ID. A missing config
// file is not an error as long as credentials arrive via the environment.
func loadConfig(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyLogLevel, "info")

	v.SetEnvPrefix("FALCON")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath("$HOME")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return v, nil
}
