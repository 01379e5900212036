package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/ngt-labs/coughdx/internal/domain"
)

var errNoUser = errors.New("--user-id is required for history")

func newHistoryCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List or delete archived diagnoses",
	}
	cmd.AddCommand(newHistoryListCmd(c), newHistoryDeleteCmd(c))
	return cmd
}

func newHistoryListCmd(c *cli) *cobra.Command {
	var (
		limit  int
		output string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List diagnoses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.UserID == "" {
				return errNoUser
			}
			h, err := c.openHistory()
			if err != nil {
				return err
			}
			defer h.Close()

			records, err := h.List(cmd.Context(), c.cfg.UserID, limit)
			if err != nil {
				return err
			}
			return printHistory(cmd.OutOrStdout(), records, output)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of records (0 for all)")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json, yaml")
	return cmd
}

func newHistoryDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one diagnosis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.UserID == "" {
				return errNoUser
			}
			h, err := c.openHistory()
			if err != nil {
				return err
			}
			defer h.Close()

			if err := h.Delete(cmd.Context(), c.cfg.UserID, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func printHistory(w io.Writer, records []domain.HistoryRecord, format string) error {
	if records == nil {
		records = []domain.HistoryRecord{}
	}
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "yaml", "yml":
		data, err := yaml.Marshal(records)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "table", "":
		if len(records) == 0 {
			_, err := fmt.Fprintln(w, "no diagnoses recorded")
			return err
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("ID", "DATE", "RESULT", "CONFIDENCE", "AUDIO")
		for _, rec := range records {
			result := rec.Result.PredictedClass
			if rec.Result.Failed() {
				result = "error: " + rec.Result.Error
			}
			t.Row(rec.ID, rec.CreatedAt.Local().Format("2006-01-02 15:04"), result, rec.Result.Confidence, rec.AudioURL)
		}
		_, err := fmt.Fprintln(w, t.Render())
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
