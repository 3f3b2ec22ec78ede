package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/IBM07/HireWire/internal/fetch"
	"github.com/IBM07/HireWire/internal/ingestion"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <url>...",
	Short: "Fetch job posting pages and store them for extraction",
	Long: `Fetch each URL, extract the posting text with platform-specific selectors and
store it as a raw posting. Already stored URLs are reported as duplicates.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var (
	ingestQuery       string
	ingestBrowser     bool
	ingestConcurrency int
)

func init() {
	ingestCmd.Flags().StringVarP(&ingestQuery, "query", "q", "", "Search query the postings were found with")
	ingestCmd.Flags().BoolVar(&ingestBrowser, "browser", false, "Render pages with headless Chrome when static HTML has too little text")
	ingestCmd.Flags().IntVar(&ingestConcurrency, "concurrency", 4, "Pages fetched in parallel")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, urls []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := []ingestion.Option{ingestion.WithLogger(logger.Named("ingestion"))}
	if ingestBrowser {
		opts = append(opts, ingestion.WithRenderer(fetch.NewBrowserRenderer(fetch.DefaultBrowserTimeout, logger.Named("browser"))))
	}
	ingester := ingestion.New(store, opts...)

	var (
		mu                      sync.Mutex
		stored, dupes, failures int
	)
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(ingestConcurrency, 1))
	for _, u := range urls {
		g.Go(func() error {
			res, err := ingester.IngestURL(ctx, u, ingestQuery)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				failures++
				logger.Error("ingest failed", zap.String("url", u), zap.Error(err))
			case res.Duplicate:
				dupes++
				fmt.Fprintf(cmd.OutOrStdout(), "duplicate  %s\n", u)
			default:
				stored++
				fmt.Fprintf(cmd.OutOrStdout(), "stored     %s  %q\n", u, res.Title)
			}
			// A failed URL does not cancel the rest.
			return nil
		})
	}
	_ = g.Wait()

	fmt.Fprintf(cmd.OutOrStdout(), "%d stored, %d duplicates, %d failed\n", stored, dupes, failures)
	if failures > 0 {
		return fmt.Errorf("%d of %d URLs failed", failures, len(urls))
	}
	return nil
}
