package cmd

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizcraft/internal/deck"
	"github.com/abhisek/quizcraft/internal/distractor"
)

var optionsCmd = &cobra.Command{
	Use:   "options <deck> <card-id>",
	Short: "Show the multiple-choice options synthesized for a card",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		showRank, _ := cmd.Flags().GetBool("rank")

		d, err := deck.Load(args[0])
		if err != nil {
			return fmt.Errorf("load deck: %w", err)
		}
		card, ok := d.Card(args[1])
		if !ok {
			return fmt.Errorf("card %q not found in %s", args[1], args[0])
		}

		var synthOpts []distractor.Option
		if cmd.Flags().Changed("seed") {
			seed, _ := cmd.Flags().GetUint64("seed")
			synthOpts = append(synthOpts, distractor.WithRand(rand.New(rand.NewPCG(seed, seed))))
		}
		syn := distractor.New(synthOpts...)
		pool := deck.Pool(d.Cards, card.ID)
		res := syn.Generate(card, pool, count)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Q: %s\n", card.Question)
		source := res.Source.String()
		if res.Pattern != "" {
			source += " (" + res.Pattern + ")"
		}
		fmt.Fprintf(out, "Source: %s\n\n", source)
		for i, opt := range res.Options {
			mark := " "
			if opt == card.Answer {
				mark = "*"
			}
			fmt.Fprintf(out, "%s %c) %s\n", mark, 'A'+i, opt)
		}
		if len(res.Options) <= 1 {
			fmt.Fprintln(out, "\nNo distractors available; this card is self-assessed.")
		}

		if showRank {
			ranked := syn.Rank(card, pool)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "%-40s  %6s  %s\n", "Candidate", "Score", "Guard")
			fmt.Fprintln(out, strings.Repeat("─", 56))
			for _, c := range ranked {
				guard := ""
				if c.Guarded {
					guard = "yes"
				}
				fmt.Fprintf(out, "%-40s  %6d  %s\n", truncate(c.Text, 40), c.Score, guard)
			}
		}
		return nil
	},
}

func init() {
	optionsCmd.Flags().IntP("count", "c", distractor.DefaultCount, "Number of distractors")
	optionsCmd.Flags().Uint64("seed", 0, "Seed for sampling and shuffling")
	optionsCmd.Flags().Bool("rank", false, "Show the scored candidate ranking")
}
