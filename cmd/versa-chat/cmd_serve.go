package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ConcealedGem/versa-chat-view/internal/app"
)

func init() {
	serveCmd.Flags().String("listen-addr", "", "bridge listen address")
	serveCmd.Flags().String("static-dir", "", "directory served at the bridge root")
	bindFlags(serveCmd.Flags(), map[string]string{
		"listen-addr": "LISTEN_ADDR",
		"static-dir":  "STATIC_DIR",
	})
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local bridge for a browser UI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if code := app.Run(appOptions(cmd)...); code != 0 {
			return fmt.Errorf("bridge exited with code %d", code)
		}
		return nil
	},
}
