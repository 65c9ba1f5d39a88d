package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/sismoscrape/internal/config"
	"github.com/nao1215/sismoscrape/internal/handler"
	"github.com/nao1215/sismoscrape/internal/log"
	"github.com/nao1215/sismoscrape/internal/report"
	"github.com/nao1215/sismoscrape/internal/store"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scrape the report table and replace the stored rows",
		Long: `Run fetches the report page once, extracts the first rows of its table and
replaces every record in the store table with them.

The result is printed as {"statusCode", "body"} JSON, the same value a
scheduled function invocation returns. The command exits with status 1 when
statusCode is not 200.

Examples:
  # Scrape into the local SQLite database
  sismoscrape run

  # Try a run without touching any database
  sismoscrape run --store memory --markdown

  # Write to DynamoDB Local
  sismoscrape run --store dynamodb --dynamodb-endpoint http://localhost:8000

  # Full run report with timings, steps and the binary version
  sismoscrape run --store memory --report

  # Keep the JSON response and show a summary on stderr
  sismoscrape run -o last-run.json

  # Tables without a header row
  sismoscrape run --skip-header-row=false`,
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}

	cmd.Flags().StringP("url", "u", config.DefaultSourceURL, "Page holding the report table")
	cmd.Flags().StringP("table", "t", config.DefaultTableName, "Store table to replace")
	cmd.Flags().StringP("store", "s", config.DefaultStore,
		fmt.Sprintf("Store backend %v", store.Kinds()))
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the SQLite database")
	cmd.Flags().String("dynamodb-endpoint", "", "DynamoDB endpoint override")
	cmd.Flags().Duration("timeout", config.DefaultTimeout, "Timeout for the page request")
	cmd.Flags().Duration("settle-delay", 0, "Wait after the page is read")
	cmd.Flags().Int("max-rows", config.DefaultMaxRows, "Number of rows kept")
	cmd.Flags().String("class", "", "CSS class the table must carry")
	cmd.Flags().Bool("skip-header-row", true, "Drop the first table row as the header")
	cmd.Flags().String("pushgateway", "", "Prometheus Pushgateway URL for run metrics")

	cmd.Flags().BoolP("markdown", "m", false, "Print the run as Markdown instead of JSON")
	cmd.Flags().Bool("text", false, "Print the run as plain text instead of JSON")
	cmd.Flags().Bool("report", false, "Print the full run report as JSON, stamped with the version")
	cmd.Flags().StringP("output", "o", "", "Write the output to the given file")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildRunConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.New(os.Stderr, cfg.LogFormat, cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, err := handler.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer h.Close()

	run, resp := h.Run(ctx)

	markdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	text, err := cmd.Flags().GetBool("text")
	if err != nil {
		return err
	}
	fullReport, err := cmd.Flags().GetBool("report")
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	err = withOutput(cmd.OutOrStdout(), outputPath, func(w io.Writer) error {
		writers := make([]report.Writer, 0, 2)
		switch {
		case markdown:
			writers = append(writers, report.NewMarkdownWriter(w))
		case text:
			writers = append(writers, report.NewSimpleWriter(w, report.WithVerbose(cfg.Verbose)))
		case fullReport:
			writers = append(writers, report.NewJSONWriter(w,
				report.WithPrettyPrint(),
				report.WithVersion(getVersion()),
			))
		default:
			if _, err := report.NewJSONWriter(w, report.WithPrettyPrint()).Encode(resp); err != nil {
				return err
			}
		}
		if outputPath != "" {
			writers = append(writers, report.NewSimpleWriter(cmd.ErrOrStderr()))
		}
		_, err := report.NewMultiWriter(writers...).Write(run)
		return err
	})
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("run finished with status %d", resp.StatusCode)
	}
	return nil
}

// buildRunConfig loads the configuration and overlays the flags the user set.
func buildRunConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("url") {
		if cfg.SourceURL, err = flags.GetString("url"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("table") {
		if cfg.TableName, err = flags.GetString("table"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("store") {
		if cfg.Store, err = flags.GetString("store"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("dynamodb-endpoint") {
		if cfg.DynamoDBEndpoint, err = flags.GetString("dynamodb-endpoint"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("settle-delay") {
		if cfg.SettleDelay, err = flags.GetDuration("settle-delay"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-rows") {
		if cfg.MaxRows, err = flags.GetInt("max-rows"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("class") {
		if cfg.TableClass, err = flags.GetString("class"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("skip-header-row") {
		if cfg.SkipHeaderRow, err = flags.GetBool("skip-header-row"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("pushgateway") {
		if cfg.PushgatewayURL, err = flags.GetString("pushgateway"); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// withOutput calls write with the file at path, or with stdout when path is
// empty. Files are created with owner-only permissions.
func withOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	return write(f)
}
