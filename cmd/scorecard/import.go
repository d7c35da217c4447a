package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ai-scorecard/backend/internal/report"
	"ai-scorecard/backend/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <export.json>",
	Short: "Import stored scorecard documents from a JSON export",
	Long: `Import scorecard documents exported from the previous document store.

The file holds either an object keyed by report ID or an array of documents.
Field names are resolved through the same aliases the download routes accept.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read export: %w", err)
	}
	scorecards, err := parseExport(raw)
	if err != nil {
		return err
	}

	rows := make([]store.Report, 0, len(scorecards))
	for _, sc := range scorecards {
		row := store.ReportFromScorecard(sc)
		if row.ID == "" || row.ID == report.NotAvailable {
			row.ID = uuid.NewString()
		}
		if row.Tier == "" {
			row.Tier = report.ExtractTier(row.Markdown)
		}
		if row.Score == nil {
			if score, ok := report.ExtractScore(row.Markdown); ok {
				row.Score = &score
			}
		}
		rows = append(rows, *row)
	}

	db, err := store.Open(cfg.DatabasePath, true)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.SaveReports(rows); err != nil {
		return fmt.Errorf("save reports: %w", err)
	}
	logrus.WithFields(logrus.Fields{"reports": len(rows), "db": cfg.DatabasePath}).Info("import complete")
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d reports\n", len(rows))
	return nil
}

// parseExport accepts an object keyed by report ID or a plain array.
func parseExport(raw []byte) ([]report.Scorecard, error) {
	var keyed map[string]map[string]any
	if err := json.Unmarshal(raw, &keyed); err == nil {
		ids := make([]string, 0, len(keyed))
		for id := range keyed {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out := make([]report.Scorecard, 0, len(ids))
		for _, id := range ids {
			out = append(out, report.FromDocument(keyed[id], id))
		}
		return out, nil
	}

	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	out := make([]report.Scorecard, 0, len(list))
	for _, doc := range list {
		out = append(out, report.FromDocument(doc, ""))
	}
	return out, nil
}
