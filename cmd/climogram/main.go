// Command climogram shows cached weather series as yearly-mean line
// charts. The interactive view runs a Bubble Tea program fed by a
// background load coordinator; `seed` and `export` work on the cache
// directly.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/jmverlaan/climogram/pkg/aggregate"
	"github.com/jmverlaan/climogram/pkg/config"
	"github.com/jmverlaan/climogram/pkg/export"
	"github.com/jmverlaan/climogram/pkg/model"
	"github.com/jmverlaan/climogram/pkg/seed"
	"github.com/jmverlaan/climogram/pkg/store"
	"github.com/jmverlaan/climogram/pkg/ui"
	"github.com/jmverlaan/climogram/pkg/version"
	"github.com/jmverlaan/climogram/pkg/worker"
)

var (
	flagConfig string
	flagSource string
	flagDB     string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "climogram: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "climogram",
		Short:   "Yearly weather series in your terminal",
		Long:    "climogram caches temperature and precipitation series locally\nand charts their yearly means.",
		Version: version.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runTUI(cfg)
		},
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: XDG config dir)")
	root.PersistentFlags().StringVar(&flagSource, "source", "", "seed source base URL")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "series cache path")

	root.AddCommand(seedCmd(), exportCmd())
	return root
}

// loadConfig resolves configuration with flags > environment > file >
// defaults precedence.
func loadConfig() (config.Config, error) {
	_ = godotenv.Load()

	var (
		cfg config.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.LoadFrom(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, err
	}

	config.ApplyEnv(&cfg)
	if flagSource != "" {
		cfg.SourceURL = flagSource
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	return cfg, nil
}

func runTUI(cfg config.Config) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("stdout is not a terminal; use `climogram export` for scripted output")
	}

	coord := worker.New(worker.Config{
		DBPath: cfg.DBPath,
		Source: seed.NewClient(cfg.SourceURL, nil),
	})
	coord.Start()

	m := ui.NewModel(coord, model.Category(cfg.UI.DefaultCategory))
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()

	// The model terminates the coordinator on quit; make sure it also
	// winds down on any other exit path before the process leaves.
	coord.Terminate()
	select {
	case <-coord.Done():
	case <-time.After(3 * time.Second):
	}
	return err
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Fetch remote series into the local cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			client := seed.NewClient(cfg.SourceURL, nil)
			g, ctx := errgroup.WithContext(cmd.Context())
			for _, cat := range model.Categories() {
				g.Go(func() error {
					empty, err := st.IsEmpty(cat)
					if err != nil {
						return err
					}
					if !empty {
						fmt.Fprintf(cmd.OutOrStdout(), "%s: already cached, skipping\n", cat)
						return nil
					}
					records, err := client.Fetch(ctx, cat)
					if err != nil {
						return fmt.Errorf("%s: %w", cat, err)
					}
					if err := st.Put(cat, records); err != nil {
						return fmt.Errorf("%s: %w", cat, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: cached %d records\n", cat, len(records))
					return nil
				})
			}
			return g.Wait()
		},
	}
}

func exportCmd() *cobra.Command {
	var (
		flagCategory string
		flagStart    int
		flagEnd      int
		flagOut      string
		flagFormat   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a chart to an SVG or PNG file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			cat := model.Category(flagCategory)
			if !cat.Valid() {
				return fmt.Errorf("unknown category %q", flagCategory)
			}

			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := coldLoad(cmd.Context(), st, cfg, cat); err != nil {
				return err
			}

			var rng *model.YearRange
			if flagStart != 0 || flagEnd != 0 {
				if flagStart == 0 || flagEnd == 0 || flagStart > flagEnd {
					return fmt.Errorf("--start and --end must both be set, with start <= end")
				}
				rng = &model.YearRange{Start: flagStart, End: flagEnd}
			}

			records, err := st.GetAll(cat, rng)
			if err != nil {
				return err
			}
			points := aggregate.ByYear(records)
			if len(points) == 0 {
				return fmt.Errorf("no data for %s in the requested range", cat)
			}

			resolved, _ := aggregate.YearSpan(records)
			if rng != nil {
				resolved = *rng
			}

			err = export.SaveChart(export.ChartOptions{
				Path:     flagOut,
				Format:   flagFormat,
				Category: cat,
				Points:   points,
				Range:    resolved,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d years)\n", flagOut, len(points))
			return nil
		},
	}

	cmd.Flags().StringVar(&flagCategory, "category", "temperature", "series to export")
	cmd.Flags().IntVar(&flagStart, "start", 0, "first year (default: full range)")
	cmd.Flags().IntVar(&flagEnd, "end", 0, "last year (default: full range)")
	cmd.Flags().StringVar(&flagOut, "out", "climogram.svg", "output path")
	cmd.Flags().StringVar(&flagFormat, "format", "", "svg or png (default: from extension)")
	return cmd
}

// coldLoad fetches and caches the category when the store has nothing
// for it yet, mirroring what the interactive coordinator does on a
// first request.
func coldLoad(ctx context.Context, st *store.Store, cfg config.Config, cat model.Category) error {
	empty, err := st.IsEmpty(cat)
	if err != nil {
		return err
	}
	if !empty {
		return nil
	}

	client := seed.NewClient(cfg.SourceURL, &http.Client{Timeout: 30 * time.Second})
	records, err := client.Fetch(ctx, cat)
	if err != nil {
		return err
	}
	return st.Put(cat, records)
}
