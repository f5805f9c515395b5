package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/abhisek/quizcraft/internal/llm"
	"github.com/abhisek/quizcraft/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded explanation requests",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		card, _ := cmd.Flags().GetString("card")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(),
			store.QueryOpts{Limit: limit, Purpose: purpose, CardID: card})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		printLLMEvents(cmd.OutOrStdout(), events)
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and reply of one LLM call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid event id %q", args[0])
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}
		printLLMEvent(cmd.OutOrStdout(), e)
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		repo := s.EventRepo()
		byPurpose, err := repo.LLMUsageByPurpose(cmd.Context())
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		byModel, err := repo.LLMUsageByModel(cmd.Context())
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(byPurpose) == 0 {
			fmt.Fprintln(out, "No LLM usage recorded yet.")
			return nil
		}
		printUsage(out, byPurpose)
		printCost(out, byModel)
		return nil
	},
}

func printLLMEvents(out io.Writer, events []store.LLMEvent) {
	if len(events) == 0 {
		fmt.Fprintln(out, "No LLM calls recorded.")
		return
	}

	fmt.Fprintf(out, "%5s  %-19s  %-12s  %-12s  %-28s  %6s  %6s  %6s\n",
		"ID", "Time", "Purpose", "Card", "Model", "In", "Out", "Ms")
	fmt.Fprintln(out, rule(108))
	for _, e := range events {
		model := truncate(e.Model, 28)
		if !e.Success {
			model = truncate("! "+e.Model, 28)
		}
		fmt.Fprintf(out, "%5d  %-19s  %-12s  %-12s  %-28s  %6d  %6d  %6d\n",
			e.ID,
			e.Timestamp.Local().Format(timeLayout),
			truncate(e.Purpose, 12),
			truncate(lo.Ternary(e.CardID == "", "-", e.CardID), 12),
			model,
			e.InputTokens, e.OutputTokens, e.LatencyMs,
		)
	}
}

func printLLMEvent(out io.Writer, e *store.LLMEvent) {
	field := func(name, value string) {
		fmt.Fprintf(out, "%-9s %s\n", name+":", value)
	}
	field("ID", strconv.Itoa(e.ID))
	field("Time", e.Timestamp.Local().Format(timeLayout))
	field("Provider", e.Provider)
	field("Model", e.Model)
	field("Purpose", e.Purpose)
	if e.CardID != "" {
		field("Card", e.CardID)
	}
	field("Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens))
	field("Latency", fmt.Sprintf("%dms", e.LatencyMs))
	if e.Success {
		field("Status", "ok")
	} else {
		field("Status", "failed: "+e.ErrorMessage)
	}

	for _, part := range []struct{ name, body string }{
		{"PROMPT", e.RequestBody},
		{"REPLY", e.ResponseBody},
	} {
		fmt.Fprintf(out, "\n%s\n%s\n", part.name, rule(60))
		fmt.Fprintln(out, lo.Ternary(part.body == "", "(not captured)", part.body))
	}
}

func printUsage(out io.Writer, usage []store.LLMUsage) {
	fmt.Fprintln(out, "Usage by purpose")
	fmt.Fprintf(out, "%-16s  %6s  %10s  %10s  %8s\n", "Purpose", "Calls", "Input", "Output", "Avg Ms")
	fmt.Fprintln(out, rule(58))
	for _, u := range usage {
		fmt.Fprintf(out, "%-16s  %6d  %10d  %10d  %8d\n",
			truncate(u.Purpose, 16), u.Calls, u.InputTokens, u.OutputTokens, u.AvgLatencyMs)
	}
	fmt.Fprintln(out, rule(58))
	fmt.Fprintf(out, "%-16s  %6d  %10d  %10d\n", "Total",
		lo.SumBy(usage, func(u store.LLMUsage) int { return u.Calls }),
		lo.SumBy(usage, func(u store.LLMUsage) int { return u.InputTokens }),
		lo.SumBy(usage, func(u store.LLMUsage) int { return u.OutputTokens }),
	)
}

func printCost(out io.Writer, usage []store.LLMUsage) {
	if len(usage) == 0 {
		return
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Estimated cost (USD)")
	fmt.Fprintf(out, "%-32s  %6s  %10s\n", "Model", "Calls", "Cost")
	fmt.Fprintln(out, rule(52))

	var total float64
	var unpriced []string
	for _, u := range usage {
		price := llm.LookupCost(u.Model)
		if price == nil {
			unpriced = append(unpriced, u.Model)
			fmt.Fprintf(out, "%-32s  %6d  %10s\n", truncate(u.Model, 32), u.Calls, "?")
			continue
		}
		c := price.Cost(u.InputTokens, u.OutputTokens)
		total += c
		fmt.Fprintf(out, "%-32s  %6d  %10s\n", truncate(u.Model, 32), u.Calls, formatCost(c))
	}
	fmt.Fprintln(out, rule(52))
	fmt.Fprintf(out, "%-32s  %6s  %10s\n", lo.Ternary(len(unpriced) > 0, "Total (partial)", "Total"), "", formatCost(total))
	if len(unpriced) > 0 {
		fmt.Fprintf(out, "\nNo pricing for: %s\n", strings.Join(unpriced, ", "))
	}
}

func rule(n int) string { return strings.Repeat("─", n) }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only calls with this purpose (e.g. explanation)")
	llmListCmd.Flags().StringP("card", "c", "", "Only calls made for this card id")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
