package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/uninspired/inspire-wall/backend/internal/app"
	"github.com/uninspired/inspire-wall/backend/internal/config"
	"github.com/uninspired/inspire-wall/backend/internal/logging"
	"github.com/uninspired/inspire-wall/backend/internal/service/layout"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "walltester",
		Short:         "Render and inspect the Inspire Wall from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "[WARN] 无法加载 .env，改用系统环境变量: %v\n", err)
			}
		},
	}
	root.PersistentFlags().Bool("sample", false, "skip the remote store and use the built-in sample threads")
	root.PersistentFlags().Duration("timeout", 30*time.Second, "remote request timeout")

	root.AddCommand(newRenderCmd(), newStatsCmd(), newSuggestCmd())
	return root
}

// loadWall builds the wall and loads it unless --sample is set.
func loadWall(cmd *cobra.Command) (*app.App, context.Context, context.CancelFunc, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("配置加载失败: %w", err)
	}
	cfg.Log.Level = "warn"
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, nil, err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}

	if sample, _ := cmd.Flags().GetBool("sample"); !sample {
		if err := a.Wall.Reload(ctx); err != nil {
			logger.Warn("reload failed, using fallback data", zap.Error(err))
		}
	}
	return a, ctx, cancel, nil
}

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write the current wall as an SVG document",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, cancel, err := loadWall(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer a.Close()

			out, _ := cmd.Flags().GetString("out")
			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			l := a.Wall.Layout()
			if err := layout.RenderSVG(w, l); err != nil {
				return err
			}
			if out != "" && out != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d words, %d zones, source=%s)\n",
					out, len(l.Runs), len(l.Zones), a.Store.Source())
			}
			return nil
		},
	}
	cmd.Flags().StringP("out", "o", "", "output file (default stdout)")
	return cmd
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print wall statistics, the countdown and the ticker",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, cancel, err := loadWall(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer a.Close()

			stats := a.Wall.Stats()
			countdown := a.Wall.Countdown()
			ticker := a.Wall.Ticker()

			if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"stats":     stats,
					"countdown": countdown,
					"ticker":    ticker,
				})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "drop:       %s (%s)\n", stats.DropID, countdown)
			fmt.Fprintf(w, "threads:    %d/%d (%d spots left)\n", stats.TotalThreads, stats.Capacity, stats.SpotsRemaining)
			fmt.Fprintf(w, "reactions:  %d (top %d)\n", stats.TotalReactions, stats.MostReactions)
			fmt.Fprintf(w, "emotion:    %s\n", stats.TopEmotion)
			fmt.Fprintf(w, "source:     %s\n", stats.Source)
			for _, item := range ticker {
				fmt.Fprintf(w, "  %s\n", item)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "output JSON")
	return cmd
}

func newSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <message>",
		Short: "Suggest an emotion tag for a message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel, err := loadWall(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer a.Close()

			s := a.Emotion.Suggest(ctx, strings.Join(args, " "))
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (confidence %.2f, via %s)\n", s.Emotion, s.Color, s.Confidence, s.Source)
			return nil
		},
	}
}
