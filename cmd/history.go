package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent drill sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		sessions, err := s.EventRepo().RecentSessions(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("query sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions recorded yet.")
			return nil
		}

		fmt.Fprintf(out, "%-16s  %-24s  %-10s  %-8s  %9s  %8s  %6s\n",
			"Started", "Deck", "State", "Format", "Answered", "Correct", "Streak")
		fmt.Fprintln(out, strings.Repeat("─", 93))
		for _, r := range sessions {
			fmt.Fprintf(out, "%-16s  %-24s  %-10s  %-8s  %4d/%-4d  %8d  %6d\n",
				r.StartedAt.Local().Format("2006-01-02 15:04"),
				truncate(r.Deck, 24),
				r.State,
				r.Format,
				r.Answered, r.Total,
				r.Correct,
				r.MaxStreak,
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of sessions to show")
}
