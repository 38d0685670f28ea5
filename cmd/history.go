package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/studybuddy/internal/export"
	"github.com/abhisek/studybuddy/internal/screens/notes"
	"github.com/abhisek/studybuddy/internal/screens/reports"
	"github.com/abhisek/studybuddy/internal/store"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect saved quiz reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List quiz reports, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		b, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		list, err := b.History.Reports(ctx)
		if err != nil {
			return fmt.Errorf("load reports: %w", err)
		}
		if len(list) == 0 {
			fmt.Println(reports.EmptyMessage)
			return nil
		}

		fmt.Printf("%-14s  %-20s  %-7s  %s\n", "ID", "Date", "Score", "Topic")
		fmt.Println(strings.Repeat("─", 72))
		for _, r := range store.NewestFirst(list) {
			fmt.Printf("%-14d  %-20s  %-7s  %s\n", r.ID, r.Date, fmt.Sprintf("%d/%d", r.Score, r.Total), truncate(r.Topic, 40))
		}
		return nil
	},
}

var reportsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one report with its summary and breakdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}
		ctx := cmd.Context()
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		b, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		r, err := b.History.ReportByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load report: %w", err)
		}
		if r == nil {
			return fmt.Errorf("report %d not found", id)
		}

		fmt.Printf("Topic:  %s\n", r.Topic)
		fmt.Printf("Date:   %s\n", r.Date)
		fmt.Printf("Score:  %d/%d\n\n", r.Score, r.Total)
		fmt.Print(reports.Detail(*r))
		return nil
	},
}

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Inspect and export processed notes",
}

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List processed notes, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		b, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		list, err := b.History.Notes(ctx)
		if err != nil {
			return fmt.Errorf("load notes: %w", err)
		}
		if len(list) == 0 {
			fmt.Println(notes.EmptyMessage)
			return nil
		}

		fmt.Printf("%-14s  %-24s  %s\n", "ID", "Date", "Title")
		fmt.Println(strings.Repeat("─", 72))
		for _, n := range store.NewestFirst(list) {
			fmt.Printf("%-14d  %-24s  %s\n", n.ID, n.Date, truncate(n.Title, 40))
		}
		return nil
	},
}

var notesExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write a processed note to a text file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}
		ctx := cmd.Context()
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		b, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		n, err := b.History.NoteByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load note: %w", err)
		}
		if n == nil {
			return fmt.Errorf("note %d not found", id)
		}

		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = cfg.ExportDir
		}
		path, err := export.WriteText(dir, n.Title, n.Text)
		if err != nil {
			return fmt.Errorf("export note: %w", err)
		}
		fmt.Println("Exported to", path)
		return nil
	},
}

func init() {
	notesExportCmd.Flags().String("dir", "", "Directory to write to (default: export_dir from config)")

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsShowCmd)
	notesCmd.AddCommand(notesListCmd)
	notesCmd.AddCommand(notesExportCmd)
}
