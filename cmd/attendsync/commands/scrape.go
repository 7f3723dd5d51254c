package commands

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"attendsync-backend/lib/automation"
	"attendsync-backend/lib/configutil"
	"attendsync-backend/lib/serviceutil"
	"attendsync-backend/lib/storeclient"
	"attendsync-backend/services/attendsync/scraper"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type StoreConfig struct {
	Supabase *storeclient.SupabaseOptions `json:"supabase"`
	Database *storeclient.SQLOptions      `json:"database"`
}

type Config struct {
	Url                string                `json:"url"`
	Headless           bool                  `json:"headless"`
	MaxPages           int                   `json:"max_pages"`
	Screenshot         string                `json:"screenshot"`
	StoreSettleSeconds int                   `json:"store_settle_seconds"`
	Traversal          scraper.TraversalSpec `json:"traversal"`
	Store              StoreConfig           `json:"store"`
}

var configPath *string

func init() {
	configPath = scrapeCmd.Flags().String("config", "config.json5", "The configuration file to run with.")
	rootCmd.AddCommand(scrapeCmd)
}

func openStore(cfg StoreConfig) (storeclient.Client, error) {
	if cfg.Supabase != nil {
		return storeclient.NewSupabase(*cfg.Supabase)
	}
	if cfg.Database != nil {
		return storeclient.OpenSQL(*cfg.Database)
	}
	return nil, fmt.Errorf("store credentials are not set, specify store.supabase or store.database")
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--config <path/to/config.json5>]",
	Short: "Walks the portal's filter cascade and republishes every subject's attendance table.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[Config](*configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if cfg.Url == "" {
			serviceutil.Fatal("failed to read config", fmt.Errorf("a portal url was not specified"))
		}

		store, err := openStore(cfg.Store)
		if err != nil {
			serviceutil.Fatal("failed to open store", err)
		}

		slog.Info("launching browser", "headless", cfg.Headless)
		browser, err := automation.NewChrome(cmd.Context(), automation.ChromeOptions{
			Headless: cfg.Headless,
		})
		if err != nil {
			serviceutil.Fatal("failed to launch browser", err)
		}
		defer browser.Close()

		t1 := time.Now()
		results := scraper.Run(cmd.Context(), browser, store, cfg.Traversal, scraper.Options{
			Url:              cfg.Url,
			MaxPages:         cfg.MaxPages,
			ScreenshotPath:   cfg.Screenshot,
			StoreSettleDelay: time.Duration(cfg.StoreSettleSeconds) * time.Second,
		})
		t2 := time.Now()

		printSummary(results)
		slog.Info("scraping time", "seconds", t2.Sub(t1).Seconds())
	},
}

func printSummary(results []scraper.SubjectResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Subject", "Table", "Rows", "Status"})
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		t.AppendRow(table.Row{r.Subject, r.Table, r.Rows, status})
	}
	t.Render()
}
