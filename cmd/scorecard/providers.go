package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"ai-scorecard/backend/internal/ai"
)

var probeTimeout time.Duration

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Check which LLM providers answer",
	RunE:  runProviders,
}

func init() {
	providersCmd.Flags().DurationVar(&probeTimeout, "timeout", 10*time.Second, "Per-provider probe timeout")
}

func runProviders(cmd *cobra.Command, args []string) error {
	set, err := ai.NewSet(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("configure ai providers: %w", err)
	}
	statuses := ai.CheckAll(cmd.Context(), set.All(), probeTimeout)

	rows := make([][]string, 0, len(statuses))
	for _, status := range statuses {
		latency := "-"
		if status.Configured {
			latency = strconv.FormatInt(status.LatencyMs, 10) + "ms"
		}
		rows = append(rows, []string{status.Provider, yesNo(status.Configured), yesNo(status.Available), latency})
	}
	md := markdown.NewMarkdown(cmd.OutOrStdout())
	md.Table(markdown.TableSet{
		Header: []string{"Provider", "Configured", "Available", "Latency"},
		Rows:   rows,
	})
	return md.Build()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
