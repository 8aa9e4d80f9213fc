package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/ConcealedGem/versa-chat-view/internal/app"
	"github.com/ConcealedGem/versa-chat-view/internal/render"
)

var rootCmd = &cobra.Command{
	Use:   "versa-chat",
	Short: "Terminal and browser client for the versa agent backend",
	Long: `versa-chat talks to an agent backend over its streaming chat protocol.
Use "serve" to run the local bridge for a browser UI, or "ask" to chat from
the terminal.`,
	SilenceUsage: true,
}

// flagKeys maps persistent flags to the configuration keys they override.
var flagKeys = map[string]string{
	"api-base-url":  "API_BASE_URL",
	"log-level":     "LOG_LEVEL",
	"database-path": "DATABASE_PATH",
	"conversation":  "CONVERSATION_ID",
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.String("api-base-url", "", "agent backend base URL")
	flags.String("log-level", "", "log level (DEBUG, INFO, WARN, ERROR)")
	flags.String("database-path", "", "SQLite file for tokens and conversations")
	flags.String("conversation", "", "conversation id")
	flags.Bool("ephemeral", false, "keep state in memory only")

	bindFlags(flags, flagKeys)
}

func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

// appOptions translates the persistent flags into app options.
func appOptions(cmd *cobra.Command) []app.Option {
	var opts []app.Option
	if ephemeral, _ := cmd.Flags().GetBool("ephemeral"); ephemeral {
		opts = append(opts, app.WithEphemeralStorage())
	}
	return opts
}

// bootstrap builds the app for a one-shot command.
func bootstrap(cmd *cobra.Command) (*app.App, error) {
	return app.Bootstrap(true, appOptions(cmd)...)
}

// newRenderer styles output for terminals and leaves piped output plain.
func newRenderer() (*render.Renderer, error) {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return render.New(render.StylePlain, 0)
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		width = 80
	}
	return render.New(render.StyleAuto, width)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
