// Package commands defines the caseflow CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "caseflow",
	Short: "Case lifecycle and SLA alert engine",
	Long: `caseflow tracks citizen complaint cases through their investigative
pipeline, enforces stage deadlines, and raises self-resolving alerts
when a case violates its handling policy.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
}
