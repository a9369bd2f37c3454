// Package cmd provides the command-line interface for trialsim.
package cmd

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "trialsim",
	Short: "trialsim simulates the randomization of platform trials.",
	Long: `trialsim simulates platform trials that add experimental arms ` +
		`during enrollment. It compares simple randomization, stratified ` +
		`block randomization, the stratified block urn design and ` +
		`minimization on covariate imbalance and allocation predictability.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		err := loadEnv(envFile)
		if err != nil {
			return err
		}

		levelName, _ := cmd.Flags().GetString("log-level")
		level, err := logrus.ParseLevel(levelName)
		if err != nil {
			return err
		}

		logrus.SetLevel(level)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info",
		"Logging level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("env-file", ".env",
		"File with TRIALSIM_* defaults")
}

// loadEnv reads the env file if it exists. Variables already set in the
// environment take precedence.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}

	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		logrus.WithError(err).Error("trialsim failed")
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
