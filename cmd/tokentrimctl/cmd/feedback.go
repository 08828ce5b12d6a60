package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	feedbackEditID  string
	feedbackPattern string
	feedbackRuleID  string
	feedbackNote    string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record a decision about a proposed edit",
}

var feedbackAcceptCmd = &cobra.Command{
	Use:   "accept",
	Short: "Mark an edit as accepted",
	RunE:  func(cmd *cobra.Command, args []string) error { return submitFeedback(true) },
}

var feedbackRejectCmd = &cobra.Command{
	Use:   "reject",
	Short: "Mark an edit as rejected",
	RunE:  func(cmd *cobra.Command, args []string) error { return submitFeedback(false) },
}

func init() {
	for _, c := range []*cobra.Command{feedbackAcceptCmd, feedbackRejectCmd} {
		c.Flags().StringVar(&feedbackEditID, "edit", "", "Edit ID from an optimization response")
		c.Flags().StringVar(&feedbackPattern, "pattern", "", "Matched text of the edit")
		c.Flags().StringVar(&feedbackRuleID, "rule", "", "Rule ID, when the edit came from a stored rule")
		c.Flags().StringVar(&feedbackNote, "note", "", "Free-form note")
		_ = c.MarkFlagRequired("edit")
		_ = c.MarkFlagRequired("pattern")
	}

	feedbackCmd.AddCommand(feedbackAcceptCmd)
	feedbackCmd.AddCommand(feedbackRejectCmd)
}

func submitFeedback(accepted bool) error {
	client := NewClient(serverURL)

	req := map[string]interface{}{
		"edit_id":  feedbackEditID,
		"pattern":  feedbackPattern,
		"accepted": accepted,
	}
	if feedbackRuleID != "" {
		req["rule_id"] = feedbackRuleID
	}
	if feedbackNote != "" {
		req["note"] = feedbackNote
	}

	var resp map[string]interface{}
	if err := client.Post("/v1/feedback", req, &resp); err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	if outputJSON {
		return PrintJSON(resp)
	}
	verdict := "rejected"
	if accepted {
		verdict = "accepted"
	}
	fmt.Printf("Recorded %s for edit %s\n", verdict, feedbackEditID)
	return nil
}
