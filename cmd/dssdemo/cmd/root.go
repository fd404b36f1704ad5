package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/JiancunWang/klayout/pkg/dsslog"
)

var (
	// Global flags
	verbose    bool
	threads    int
	configPath string

	logger dsslog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dssdemo",
	Short: "Deep shape store demo driver",
	Long: `dssdemo is a small CLI exercising the deep shape store: it builds a
synthetic hierarchical layout, stages polygon layers through a ShapeStore,
and drives a toy device extractor over the result.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := dsslog.LevelInfo
		if verbose {
			level = dsslog.LevelDebug
		}
		logger = dsslog.NewDefaultLogger(level, os.Stdout)
		dsslog.SetGlobal(logger)
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVarP(&threads, "threads", "t", 1, "worker count for local operations")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a dss config file")
}
