// Package main provides the CLI entrypoint for wordbot.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/m3rciful/wordbot/core/buildinfo"
	corecmd "github.com/m3rciful/wordbot/core/cmd"
	coreconfig "github.com/m3rciful/wordbot/core/config"
	"github.com/m3rciful/wordbot/core/logger"
	"github.com/m3rciful/wordbot/trainer/bot"
	"github.com/m3rciful/wordbot/trainer/store"
)

const defaultConfigPath = "config.yaml"

var (
	configPath string

	importChat int64
	importFile string

	statsChat int64
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "wordbot",
		Short:        "Telegram vocabulary trainer",
		Version:      buildinfo.String(),
		SilenceUsage: true,
		RunE:         runServeCmd,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config (overrides $"+corecmd.DefaultConfigEnvVar+")")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		RunE:  runServeCmd,
	}

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Merge a word list file into a chat's dictionary",
		RunE:  runImportCmd,
	}
	importCmd.Flags().Int64Var(&importChat, "chat", 0, "chat id that owns the dictionary")
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "word list in word|translation|count format")
	_ = importCmd.MarkFlagRequired("chat")
	_ = importCmd.MarkFlagRequired("file")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print learning progress for a chat",
		RunE:  runStatsCmd,
	}
	statsCmd.Flags().Int64Var(&statsChat, "chat", 0, "chat id that owns the dictionary")
	_ = statsCmd.MarkFlagRequired("chat")

	rootCmd.AddCommand(serveCmd, importCmd, statsCmd)
	return rootCmd
}

func runServeCmd(_ *cobra.Command, _ []string) error {
	return corecmd.Run(corecmd.Options{
		ConfigPath:        configPath,
		DefaultConfigPath: defaultConfigPath,
		Bootstrap: func(ctx context.Context, cfg *coreconfig.Config) (corecmd.TelegramApp, error) {
			return bot.New(ctx, cfg)
		},
	})
}

// openApp builds the quiz services without a Telegram token for offline commands.
func openApp(ctx context.Context) (*bot.App, func(), error) {
	path, err := corecmd.ResolveConfigPath(configPath, "", defaultConfigPath)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := coreconfig.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	app, err := bot.New(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: %w", err)
	}
	return app, func() {
		if err := app.Close(); err != nil {
			log.Printf("close error: %v", err)
		}
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}, nil
}

// checkChat rejects the chat id that holds the seeded default dictionary in SQL storage.
func checkChat(chatID int64) error {
	if chatID == store.TemplateChatID {
		return fmt.Errorf("chat id %d is reserved for the default dictionary", chatID)
	}
	return nil
}

func runImportCmd(cmd *cobra.Command, _ []string) error {
	if err := checkChat(importChat); err != nil {
		return err
	}
	ctx := cmd.Context()
	f, err := os.Open(importFile)
	if err != nil {
		return err
	}
	defer f.Close()

	app, done, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer done()

	sess, err := app.Sessions.GetOrCreate(ctx, importChat)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	return sess.Do(ctx, func() error {
		added, err := sess.ImportWords(ctx, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %d words, dictionary has %d\n", added, sess.Len())
		return nil
	})
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	if err := checkChat(statsChat); err != nil {
		return err
	}
	ctx := cmd.Context()
	app, done, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer done()

	sess, err := app.Sessions.GetOrCreate(ctx, statsChat)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	out := cmd.OutOrStdout()
	return sess.Do(ctx, func() error {
		stats, ok := sess.Statistics()
		if !ok {
			fmt.Fprintln(out, "dictionary is empty")
			return nil
		}
		fmt.Fprintf(out, "learned %d of %d words (%d%%)\n", stats.LearnedCount, stats.TotalCount, stats.Percent)
		return nil
	})
}
