package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"flashdeck/internal/models"
	"flashdeck/internal/study"
	"flashdeck/internal/tui"
)

func decksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decks",
		Short: "List decks in the deck folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			infos, err := a.library.List()
			if err != nil {
				return err
			}
			rows := make([]deckRow, len(infos))
			for i, info := range infos {
				rows[i] = deckRow{info: info}
				rows[i].cards, rows[i].err = a.library.Count(info.Name)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatDeckList(a.library.Dir(), rows))
			return nil
		},
	}
}

func studyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "study [deck]",
		Short: "Study a deck in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			deck := ""
			if len(args) == 1 {
				deck = args[0]
			}
			m, err := tui.Run(a.study, deck, a.cfg.AccentColor)
			if err != nil {
				return err
			}
			if c := m.Completed(); c != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Finished %s: %d cards in %d rounds\n", c.DeckName, c.TotalCards, c.Rounds)
			}
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently completed sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			sessions, err := a.study.History(limit)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatHistory(sessions))
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "number of sessions to show")
	cmd.AddCommand(historyExportCmd(), historyImportCmd())
	return cmd
}

func historyExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the study history to a JSON file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputPath := fmt.Sprintf("flashdeck_history_%s.json", time.Now().Format("20060102_150405"))
			if len(args) == 1 {
				outputPath = args[0]
			}
			if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.backup.Export(outputPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported history to %s\n", outputPath)
			return nil
		},
	}
}

func historyImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Merge study history from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath := args[0]
			if _, err := os.Stat(inputPath); err != nil {
				return fmt.Errorf("input file: %w", err)
			}
			clearFirst, _ := cmd.Flags().GetBool("clear")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if clearFirst {
				fmt.Fprint(cmd.OutOrStdout(), "WARNING: this deletes all existing history. Type 'yes' to confirm: ")
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if strings.TrimSpace(answer) != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Import cancelled")
					return nil
				}
				if err := a.backup.ClearHistory(); err != nil {
					return err
				}
			}

			n, err := a.backup.Import(cmd.Context(), inputPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d sessions\n", n)
			return nil
		},
	}
	cmd.Flags().Bool("clear", false, "delete existing history before importing (destructive)")
	return cmd
}

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List unfinished study sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			sessions, err := a.study.Sessions(50)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatSessions(sessions, time.Now()))
			return nil
		},
	}
	cmd.AddCommand(sessionsPruneCmd())
	return cmd
}

func sessionsPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete sessions idle for longer than the idle timeout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			idle, _ := cmd.Flags().GetDuration("idle")
			if idle <= 0 {
				idle = a.cfg.SessionIdleTimeout
			}
			n, err := a.study.CleanupIdleSessions(idle)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d sessions idle for more than %s\n", n, idle)
			return nil
		},
	}
	cmd.Flags().Duration("idle", 0, "idle threshold (0 = use SESSION_IDLE_TIMEOUT)")
	return cmd
}

// deckRow is one line of the deck listing
type deckRow struct {
	info  models.DeckInfo
	cards int
	err   error
}

func formatDeckList(dir string, rows []deckRow) string {
	if len(rows) == 0 {
		return fmt.Sprintf("No decks found in %s\n", dir)
	}

	var b strings.Builder
	b.WriteString("Decks\n")
	b.WriteString("─────\n")
	for _, r := range rows {
		if r.err != nil {
			fmt.Fprintf(&b, "  %-30s  %-4s  error: %v\n", r.info.Name, r.info.Format, r.err)
			continue
		}
		fmt.Fprintf(&b, "  %-30s  %-4s  %d cards\n", r.info.Name, r.info.Format, r.cards)
	}
	return b.String()
}

func formatHistory(sessions []models.CompletedSession) string {
	if len(sessions) == 0 {
		return "No completed sessions yet\n"
	}

	var b strings.Builder
	b.WriteString("History\n")
	b.WriteString("───────\n")
	for _, s := range sessions {
		fmt.Fprintf(&b, "  %s  %-30s  %3d cards  %2d rounds  %3d reviews  %s\n",
			s.CompletedAt.Local().Format("2006-01-02 15:04"), s.DeckName, s.TotalCards, s.Rounds, s.Reviews,
			s.Duration().Round(time.Second))
	}
	return b.String()
}

func formatSessions(sessions []study.Session, now time.Time) string {
	if len(sessions) == 0 {
		return "No unfinished sessions\n"
	}

	var b strings.Builder
	b.WriteString("Sessions\n")
	b.WriteString("────────\n")
	for _, s := range sessions {
		fmt.Fprintf(&b, "  %s  %-30s  round %d  %d/%d known  idle %s\n",
			s.ID, s.DeckName, s.State.Round, s.State.Known, len(s.Cards), now.Sub(s.UpdatedAt).Round(time.Minute))
	}
	return b.String()
}
