package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	conceptID          string
	conceptDescription string
	conceptAliases     []string
	formLanguage       string
	formTokenizer      string
	formTokens         int
)

// ConceptResponse mirrors the server's concept representation.
type ConceptResponse struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
}

// SurfaceFormResponse mirrors one stored surface form.
type SurfaceFormResponse struct {
	ConceptID   string `json:"concept_id"`
	TokenizerID string `json:"tokenizer_id"`
	Language    string `json:"language"`
	Text        string `json:"text"`
	TokenCount  int    `json:"token_count"`
	CharCount   int    `json:"char_count"`
}

var conceptCmd = &cobra.Command{
	Use:   "concept",
	Short: "Manage concepts and surface forms",
}

var conceptAddCmd = &cobra.Command{
	Use:   "add <label>",
	Short: "Create or update a concept",
	Args:  cobra.ExactArgs(1),
	RunE:  runConceptAdd,
}

var conceptGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a concept",
	Args:  cobra.ExactArgs(1),
	RunE:  runConceptGet,
}

var conceptFormAddCmd = &cobra.Command{
	Use:   "add-form <concept-id> <text>",
	Short: "Record a surface form for a concept",
	Args:  cobra.ExactArgs(2),
	RunE:  runConceptFormAdd,
}

var conceptFormsCmd = &cobra.Command{
	Use:   "forms <concept-id>",
	Short: "List surface forms for a concept",
	Args:  cobra.ExactArgs(1),
	RunE:  runConceptForms,
}

func init() {
	conceptAddCmd.Flags().StringVar(&conceptID, "id", "", "Concept ID (generated when empty)")
	conceptAddCmd.Flags().StringVar(&conceptDescription, "description", "", "Concept description")
	conceptAddCmd.Flags().StringSliceVar(&conceptAliases, "alias", nil, "Alias labels (repeatable)")

	conceptFormAddCmd.Flags().StringVar(&formLanguage, "language", "english", "Surface form language")
	conceptFormAddCmd.Flags().StringVar(&formTokenizer, "tokenizer", "cl100k_base", "Tokenizer identity")
	conceptFormAddCmd.Flags().IntVar(&formTokens, "tokens", 0, "Measured token count")

	conceptFormsCmd.Flags().StringVar(&formTokenizer, "tokenizer", "cl100k_base", "Tokenizer identity")

	conceptCmd.AddCommand(conceptAddCmd)
	conceptCmd.AddCommand(conceptGetCmd)
	conceptCmd.AddCommand(conceptFormAddCmd)
	conceptCmd.AddCommand(conceptFormsCmd)
}

func runConceptAdd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)

	req := map[string]interface{}{
		"label": args[0],
	}
	if conceptID != "" {
		req["id"] = conceptID
	}
	if conceptDescription != "" {
		req["description"] = conceptDescription
	}
	if len(conceptAliases) > 0 {
		req["aliases"] = conceptAliases
	}

	var resp ConceptResponse
	if err := client.Post("/v1/concepts", req, &resp); err != nil {
		return fmt.Errorf("failed to create concept: %w", err)
	}

	if outputJSON {
		return PrintJSON(resp)
	}
	fmt.Printf("Concept %s (%s)\n", resp.ID, resp.Label)
	return nil
}

func runConceptGet(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)

	var resp ConceptResponse
	if err := client.Get("/v1/concepts/"+args[0], &resp); err != nil {
		return fmt.Errorf("failed to get concept: %w", err)
	}

	if outputJSON {
		return PrintJSON(resp)
	}
	fmt.Printf("ID:          %s\n", resp.ID)
	fmt.Printf("Label:       %s\n", resp.Label)
	if resp.Description != "" {
		fmt.Printf("Description: %s\n", resp.Description)
	}
	if len(resp.Aliases) > 0 {
		fmt.Printf("Aliases:     %s\n", strings.Join(resp.Aliases, ", "))
	}
	return nil
}

func runConceptFormAdd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)

	req := map[string]interface{}{
		"text":         args[1],
		"language":     formLanguage,
		"tokenizer_id": formTokenizer,
		"token_count":  formTokens,
	}

	var resp SurfaceFormResponse
	if err := client.Post("/v1/concepts/"+args[0]+"/forms", req, &resp); err != nil {
		return fmt.Errorf("failed to add surface form: %w", err)
	}

	if outputJSON {
		return PrintJSON(resp)
	}
	fmt.Printf("Recorded %q (%s, %d tokens) for concept %s\n",
		resp.Text, resp.Language, resp.TokenCount, resp.ConceptID)
	return nil
}

func runConceptForms(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)

	var resp struct {
		ConceptID string                `json:"concept_id"`
		Tokenizer string                `json:"tokenizer"`
		Forms     []SurfaceFormResponse `json:"forms"`
	}
	if err := client.Get("/v1/concepts/"+args[0]+"/forms?tokenizer="+formTokenizer, &resp); err != nil {
		return fmt.Errorf("failed to list surface forms: %w", err)
	}

	if outputJSON {
		return PrintJSON(resp)
	}

	rows := make([][]string, 0, len(resp.Forms))
	for _, f := range resp.Forms {
		rows = append(rows, []string{f.Text, f.Language, fmt.Sprintf("%d", f.TokenCount)})
	}
	PrintTable([]string{"TEXT", "LANGUAGE", "TOKENS"}, rows)
	return nil
}
