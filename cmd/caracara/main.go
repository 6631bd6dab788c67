// Package main provides the caracara CLI, a thin console around the IOC
// module for searching, creating and deleting Falcon indicators.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hur/caracara/pkg/falcon"
	"github.com/hur/caracara/pkg/ioc"
	"github.com/hur/caracara/pkg/logging"
)

var (
	// configFile is set by the --config flag.
	configFile string

	// jsonOutput switches commands from table to JSON output.
	jsonOutput bool

	// iocs is the global IOC module instance, initialized on startup.
	iocs *ioc.Module
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "caracara",
	Short: "Caracara manages CrowdStrike Falcon indicators of compromise",
	Long: `Caracara talks to the CrowdStrike Falcon IOC API. It searches, creates,
updates and deletes indicators of compromise, paging through large result
sets in parallel.

API credentials are read from the config file or the FALCON_CLIENT_ID and
FALCON_CLIENT_SECRET environment variables.`,
	PersistentPreRunE: initModule,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ~/.caracara.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(actionsCmd)
}

// initModule loads config and builds the Falcon client and IOC module.
func initModule(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.LogLevel(cfg.GetString(cfgKeyLogLevel))
	logging.Setup(logCfg)

	clientCfg := falcon.DefaultConfig(cfg.GetString(cfgKeyClientID), cfg.GetString(cfgKeyClientSecret))
	if cloud := cfg.GetString(cfgKeyCloud); cloud != "" {
		clientCfg.Cloud = cloud
	}

	client, err := falcon.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create falcon client: %w", err)
	}

	iocs = ioc.New(client, ioc.DefaultConfig())
	return nil
}
