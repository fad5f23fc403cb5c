package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "autovote",
	Short:         "Periodic voting for Minecraft server-list sites",
	Long:          `autovote keeps a list of vote pages, opens them in Chrome once their cooldown ends and presses the vote button.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			return os.Setenv("AUTOVOTE_CONFIG_PATH", path)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML or TOML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(voteCmd)
	rootCmd.AddCommand(visitCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(clearCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
