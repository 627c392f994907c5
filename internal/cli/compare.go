package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/compare"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/config/key"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/naming"
)

var compareCmd = &cobra.Command{
	Use:   "compare <playlist-a> <playlist-b>",
	Short: "Diff two playlists by channel identity",
	Args:  cobra.ExactArgs(2),
	RunE:  runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	configureLogging(Version)

	srcFile, err := loadSourcesFile(viper.GetString(key.SourcesFile))
	if err != nil {
		return exitWith(ExitFailure, err)
	}
	aliases := naming.NewTable(srcFile.Aliases)

	a, err := compare.LoadSide(args[0], aliases)
	if err != nil {
		return exitWith(ExitFailure, err)
	}
	b, err := compare.LoadSide(args[1], aliases)
	if err != nil {
		return exitWith(ExitFailure, err)
	}

	compare.Compare(a, b).Render(cmd.OutOrStdout())
	return nil
}
