// Package cmd implements the taskpanel command line.
package cmd

import (
	"strings"

	"github.com/Iron-Ham/taskpanel/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Execute runs the root command
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "taskpanel",
		Short: "Side panel for the Miss_TaskMaster orchestration server",
		Long: `taskpanel mirrors the task state of a Miss_TaskMaster orchestration
server as a status tree and hosts the project plan panel, either in the
terminal (taskpanel ui) or in a browser (taskpanel plan).`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initConfig(cfgFile)
		},
	}

	// Global flags
	flags := root.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.config/taskpanel/config.yaml)")
	flags.String("server", "", "orchestration server URL (overrides server.url)")
	flags.Bool("offline", false, "serve a built-in sample snapshot instead of contacting the server")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("server.url", flags.Lookup("server"))
	_ = viper.BindPFlag("server.offline", flags.Lookup("offline"))
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))

	registerTreeCmd(root)
	registerStatusCmd(root)
	registerTriggerCmds(root)
	registerReportCmd(root)
	registerLogsCmd(root)
	registerPlanCmd(root)
	registerUICmd(root)
	registerConfigCmd(root)

	return root
}

func initConfig(cfgFile string) {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("TASKPANEL")
	// Replace dots with underscores for nested keys in env vars
	// e.g., TASKPANEL_SERVER_URL for server.url
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
