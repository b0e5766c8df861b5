package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roofsite-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "roofsite-cli",
	Short:        "Roofing contractor site data pipeline",
	Long:         "Scrapes a contractor's BBB profile and Google reviews, selects and researches services, builds service pages, categorizes product images, and assembles combined_data.json for the front-end.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
