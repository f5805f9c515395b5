package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizcraft/internal/grader"
)

var gradeCmd = &cobra.Command{
	Use:   "grade <answer> <correct>",
	Short: "Grade an answer against the correct one",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		v := grader.Check(args[0], args[1])
		out := cmd.OutOrStdout()

		verdict := "incorrect"
		switch {
		case v.Exact:
			verdict = "correct (exact)"
		case v.Correct:
			verdict = "correct (within typo budget)"
		}
		fmt.Fprintf(out, "Verdict:   %s\n", verdict)
		fmt.Fprintf(out, "Distance:  %d\n", v.Distance)
		fmt.Fprintf(out, "Budget:    %d\n", v.Budget)
	},
}
