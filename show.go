package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"interviewpro/internal/config"
	"interviewpro/internal/report"
	"interviewpro/internal/session"
	"interviewpro/internal/storage"
)

var showCmd = &cobra.Command{
	Use:   "show [interview-id]",
	Short: "List exported interviews or print one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	store := storage.NewStore(config.LoadAppConfig().ResultsDir)
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		ids, err := store.ListResults()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Fprintln(out, "No exported interviews.")
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return nil
	}

	result, err := store.LoadResult(args[0])
	if err != nil {
		return err
	}
	printResult(out, result)
	return nil
}

func printResult(out io.Writer, result *storage.InterviewResult) {
	fmt.Fprintf(out, "面试 %s\n%s · %s\n%s\n\n",
		result.InterviewID, result.TargetCompany, result.TargetPosition,
		result.Timestamp.Format("2006-01-02 15:04"))

	for _, turn := range result.Turns {
		fmt.Fprintf(out, "%s：%s\n\n", speakerLabel(turn.Speaker), turn.Content)
	}

	fmt.Fprintln(out, report.Render(result.Report))
}

func speakerLabel(s session.Speaker) string {
	if s == session.SpeakerUser {
		return "候选人"
	}
	return "面试官"
}
