package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/sismoscrape/internal/log"
	"github.com/nao1215/sismoscrape/internal/model"
	"github.com/nao1215/sismoscrape/internal/report"
	"github.com/nao1215/sismoscrape/internal/store"
)

// errShowMemoryStore is returned by show for the memory store, whose records
// only live as long as the process that wrote them.
var errShowMemoryStore = errors.New("show cannot read the memory store: its records are gone when run exits; use sqlite or dynamodb")

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the rows currently stored",
		Long: `Show prints every record of the store table, ordered by "#".

Examples:
  # Rows in the local SQLite database as JSON
  sismoscrape show

  # Rows in DynamoDB as a Markdown table
  sismoscrape show --store dynamodb --markdown

  # One block of fields per row
  sismoscrape show --text`,
		Args: cobra.NoArgs,
		RunE: runShowCmd,
	}

	cmd.Flags().StringP("table", "t", "", "Store table to read")
	cmd.Flags().StringP("store", "s", "", fmt.Sprintf("Store backend %v", []store.Kind{store.KindSQLite, store.KindDynamoDB}))
	cmd.Flags().String("db-dir", "", "Directory of the SQLite database")
	cmd.Flags().String("dynamodb-endpoint", "", "DynamoDB endpoint override")
	cmd.Flags().BoolP("markdown", "m", false, "Print Markdown instead of JSON")
	cmd.Flags().Bool("text", false, "Print plain text instead of JSON")

	return cmd
}

// runShowCmd executes the show command.
func runShowCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	for flag, dst := range map[string]*string{
		"table":             &cfg.TableName,
		"store":             &cfg.Store,
		"db-dir":            &cfg.DBDir,
		"dynamodb-endpoint": &cfg.DynamoDBEndpoint,
	} {
		if !cmd.Flags().Changed(flag) {
			continue
		}
		if *dst, err = cmd.Flags().GetString(flag); err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if cfg.StoreKind() == store.KindMemory {
		return errShowMemoryStore
	}

	ctx := cmd.Context()
	s, err := store.Open(ctx, store.OpenOptions{
		Kind:      cfg.StoreKind(),
		TableName: cfg.TableName,
		DBDir:     cfg.DBDir,
		Region:    cfg.AWSRegion,
		Endpoint:  cfg.DynamoDBEndpoint,
		Logger:    log.New(os.Stderr, cfg.LogFormat, cfg.Verbose),
	})
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store, err)
	}
	defer s.Close()

	rows, err := s.Scan(ctx)
	if err != nil {
		return fmt.Errorf("failed to read table %s: %w", cfg.TableName, err)
	}

	markdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	text, err := cmd.Flags().GetBool("text")
	if err != nil {
		return err
	}

	return writeRows(rowsWriter(cmd.OutOrStdout(), markdown, text), model.ResultSet(rows))
}

// rowsWriter picks the Writer for the requested format. JSON is the default.
func rowsWriter(w io.Writer, markdown, text bool) report.Writer {
	switch {
	case markdown:
		return report.NewMarkdownWriter(w)
	case text:
		return report.NewSimpleWriter(w)
	default:
		return report.NewJSONWriter(w, report.WithPrettyPrint())
	}
}

func writeRows(writer report.Writer, rows model.ResultSet) error {
	_, err := writer.WriteRows(rows)
	return err
}
