package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cleohq/cleo/internal/config"
	"github.com/cleohq/cleo/internal/log"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "store",
	Short:   "Inspect and watch the resolved configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration values this process would use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return emit(cmd, "config.show", map[string]any{
			"storeDir":         config.StoreDir(),
			"lockTimeout":      config.LockTimeout().String(),
			"lifecycleMode":    config.GetString("lifecycle.mode"),
			"hierarchyMaxDepth": config.GetInt("hierarchy.max-depth"),
		}, "", nil)
	},
}

var configWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Block, reloading configuration whenever the config file changes on disk",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		w, err := config.Watch(ctx, func(reloadErr error) {
			if reloadErr != nil {
				log.L().Error("config reload failed", "error", reloadErr)
				return
			}
			log.L().Info("config reloaded")
		})
		if err != nil {
			return emit(cmd, "config.watch", nil, "", err)
		}
		defer func() { _ = w.Close() }()

		<-ctx.Done()
		return emit(cmd, "config.watch", nil, "stopped", nil)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configWatchCmd)
	rootCmd.AddCommand(configCmd)
}
