package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	optimizeLanguage   string
	optimizeThreshold  float64
	optimizeAggressive bool
	optimizeDirective  string
	optimizeShowEdits  bool
)

// OptimizeResponse mirrors the server's optimization result.
type OptimizeResponse struct {
	OriginalPrompt    string  `json:"original_prompt"`
	OptimizedPrompt   string  `json:"optimized_prompt"`
	OriginalTokens    int     `json:"original_tokens"`
	OptimizedTokens   int     `json:"optimized_tokens"`
	TokenSavings      int     `json:"token_savings"`
	SavingsPercentage float64 `json:"savings_percentage"`
	Applied           []Edit  `json:"optimizations"`
	RequiresReview    []Edit  `json:"requires_review"`
	OutputLanguage    string  `json:"output_language"`
}

// Edit is one applied or proposed edit.
type Edit struct {
	ID           string `json:"id"`
	Original     string `json:"original_text"`
	Replacement  string `json:"replacement_text"`
	Category     string `json:"category"`
	Reasoning    string `json:"reasoning"`
	TokenSavings int    `json:"token_savings"`
	Confidence   struct {
		Final float64 `json:"final_confidence"`
	} `json:"confidence"`
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize [prompt]",
	Short: "Optimize a prompt",
	Long: `Optimize a prompt to reduce its token cost.

The prompt is read from the argument, or from stdin when no argument is
given. Edits below the confidence threshold are reported for review instead
of being applied.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOptimize,
}

func init() {
	optimizeCmd.Flags().StringVarP(&optimizeLanguage, "language", "l", "", "Output language for the directive (english, mandarin)")
	optimizeCmd.Flags().Float64VarP(&optimizeThreshold, "threshold", "t", 0, "Confidence threshold for auto-apply (0 uses server default)")
	optimizeCmd.Flags().BoolVarP(&optimizeAggressive, "aggressive", "a", false, "Aggressive mode: lower thresholds, fewer protections")
	optimizeCmd.Flags().StringVarP(&optimizeDirective, "directive", "d", "", "Directive format (bracketed, instructive, xml, natural)")
	optimizeCmd.Flags().BoolVar(&optimizeShowEdits, "show-edits", false, "List individual edits")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	prompt, err := readPrompt(args)
	if err != nil {
		return err
	}

	client := NewClient(serverURL)

	req := map[string]interface{}{
		"prompt":          prompt,
		"aggressive_mode": optimizeAggressive,
	}
	if optimizeLanguage != "" {
		req["output_language"] = optimizeLanguage
	}
	if optimizeThreshold > 0 {
		req["confidence_threshold"] = optimizeThreshold
	}
	if optimizeDirective != "" {
		req["directive_format"] = optimizeDirective
	}

	var resp OptimizeResponse
	if err := client.Post("/v1/optimize", req, &resp); err != nil {
		return fmt.Errorf("failed to optimize: %w", err)
	}

	if outputJSON {
		return PrintJSON(resp)
	}

	fmt.Println(resp.OptimizedPrompt)
	fmt.Fprintf(os.Stderr, "\n%d -> %d tokens (saved %d, %.1f%%), %d edits applied, %d for review\n",
		resp.OriginalTokens, resp.OptimizedTokens, resp.TokenSavings,
		resp.SavingsPercentage, len(resp.Applied), len(resp.RequiresReview))

	if optimizeShowEdits {
		printEdits("Applied", resp.Applied)
		printEdits("Requires review", resp.RequiresReview)
	}

	return nil
}

func printEdits(title string, edits []Edit) {
	if len(edits) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	rows := make([][]string, 0, len(edits))
	for _, e := range edits {
		rows = append(rows, []string{
			e.Category,
			Truncate(e.Original, 30),
			Truncate(e.Replacement, 20),
			fmt.Sprintf("%.2f", e.Confidence.Final),
			fmt.Sprintf("%d", e.TokenSavings),
		})
	}
	PrintTable([]string{"CATEGORY", "ORIGINAL", "REPLACEMENT", "CONFIDENCE", "SAVED"}, rows)
}

func readPrompt(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt from stdin: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("no prompt given")
	}
	return string(data), nil
}
