package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/config/key"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/sources"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources [category]",
	Short: "List source categories and their playlists",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSources,
}

func init() {
	fl := sourcesCmd.Flags()
	fl.Bool("check", false, "Probe each source URL for reachability")
	fl.String("sources-file", "", "YAML file with extra categories")
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	configureLogging(Version)
	out := cmd.OutOrStdout()

	filePath, _ := cmd.Flags().GetString("sources-file")
	if filePath == "" {
		filePath = viper.GetString(key.SourcesFile)
	}
	srcFile, err := loadSourcesFile(filePath)
	if err != nil {
		return exitWith(ExitFailure, err)
	}

	if len(args) == 0 {
		fmt.Fprintln(out, "Built-in categories:")
		for _, name := range sources.Categories() {
			srcs, _ := sources.ByCategory(name)
			fmt.Fprintf(out, "  %-10s %d sources\n", name, len(srcs))
		}
		for name, specs := range srcFile.Categories {
			fmt.Fprintf(out, "  %-10s %d sources (from file)\n", name, len(specs))
		}
		return nil
	}

	srcs, err := sources.Resolve(args[0], srcFile, nil)
	if err != nil {
		return exitWith(ExitFailure, err)
	}

	check, _ := cmd.Flags().GetBool("check")
	if !check {
		for _, s := range srcs {
			fmt.Fprintf(out, "%2d  %-12s %s\n", s.Priority, s.Name, s.URL)
		}
		return nil
	}

	failures := 0
	for _, res := range sources.Preflight(cmd.Context(), srcs) {
		status := "ok"
		if !res.OK() {
			status = res.Err.Error()
			failures++
		}
		fmt.Fprintf(out, "%2d  %-12s %-8s %s\n", res.Source.Priority, res.Source.Name, status, res.Source.URL)
	}
	if failures == len(srcs) {
		return exitWith(ExitFailure, fmt.Errorf("all %d sources unreachable", len(srcs)))
	}
	return nil
}
