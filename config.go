// SPDX-License-Identifier: GPL-2.0-only

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/relavak/temperd/temper"
)

const (
	defaultTimeout  = 5 * time.Second
	defaultInterval = 10 * time.Second
)

// initConfig defines config flags, config file, and envs
func initConfig() error {
	cfgFile := flag.String("config", "", "Path to the config file.")
	flag.Int("device", 0, "Zero-based index of the device to poll among all matching devices.")
	flag.Duration("timeout", defaultTimeout, "Timeout for each USB control or interrupt transfer.")
	flag.Duration("interval", defaultInterval, "Interval between polls.")
	flag.Int("count", 0, "Number of polls before exiting; 0 polls forever.")
	flag.String("log-level", logLevelInfo, fmt.Sprintf("Log level to use. Possible values: %s", availableLogLevels))
	flag.String("listen", ":8080", "The address at which to listen for health and metrics.")

	flag.Parse()
	if err := viper.BindPFlags(flag.CommandLine); err != nil {
		return fmt.Errorf("failed to bind config: %w", err)
	}

	if *cfgFile != "" {
		viper.SetConfigFile(*cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("/etc/temperd/")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error
		} else {
			// Config file was found but another error was produced
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return nil
}

// getConfiguredProducts decodes extra product descriptors from the config
// file, for device variants that share the built-in command set but report
// different IDs.
func getConfiguredProducts() ([]temper.ProductDescriptor, error) {
	raw := viper.Get("products")
	if raw == nil {
		return nil, nil
	}
	defs, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("failed to decode products: unexpected type: %T", raw)
	}

	products := make([]temper.ProductDescriptor, len(defs))
	for i, def := range defs {
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:  &products[i],
			TagName: "json",
		})
		if err != nil {
			return nil, err
		}

		if err := decoder.Decode(def); err != nil {
			return nil, fmt.Errorf("failed to decode product data %q: %w", def, err)
		}
	}
	return products, nil
}
