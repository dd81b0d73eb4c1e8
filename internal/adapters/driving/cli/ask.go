package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
)

var (
	askTopK      int
	askDocuments []string
	askFileTypes []string
	askHybrid    bool
	askStream    bool
	askJSON      bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the indexed documents",
	Long: `Retrieves the passages most similar to the question, reranks them and asks
the language model to answer from those passages only. The cited passages
are listed after the answer.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of passages to answer from (default from config)")
	askCmd.Flags().StringSliceVarP(&askDocuments, "document", "d", nil, "restrict to document ids")
	askCmd.Flags().StringSliceVar(&askFileTypes, "type", nil, "restrict to file types (pdf, docx, excel)")
	askCmd.Flags().BoolVar(&askHybrid, "hybrid", false, "rerank with keyword overlap instead of embeddings")
	askCmd.Flags().BoolVar(&askStream, "stream", false, "print the answer as it is generated")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(args[0])
	if question == "" {
		return errors.New("question must not be empty")
	}
	if askTopK < 0 || askTopK > 50 {
		return errors.New("--top-k must be between 1 and 50")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	app, err := newApp(ctx, cfg, appOptions{Synchronous: true})
	if err != nil {
		return err
	}
	defer app.Close()

	req := domain.QueryRequest{
		Message:     question,
		DocumentIDs: askDocuments,
		TopK:        askTopK,
		Hybrid:      askHybrid,
	}
	for _, ft := range askFileTypes {
		req.Filter.FileTypes = append(req.Filter.FileTypes, domain.FileType(strings.ToLower(ft)))
	}

	var answer *domain.Answer
	streamed := false
	if askStream && !askJSON {
		answer = app.Chat.AskStream(ctx, req, func(token string) error {
			streamed = true
			cmd.Print(token)
			return nil
		})
	} else {
		answer = app.Chat.Ask(ctx, req)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}

	if streamed {
		cmd.Println()
	} else {
		cmd.Println(answer.Text)
	}
	outputSources(cmd, answer.Sources)

	if answer.State == domain.StateErrored {
		return fmt.Errorf("query failed: %w", answer.Err)
	}
	return nil
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	if answer.Sources == nil {
		answer.Sources = []domain.Source{}
	}
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSources(cmd *cobra.Command, sources []domain.Source) {
	if len(sources) == 0 {
		return
	}

	cmd.Println()
	cmd.Println("Sources:")
	for i, s := range sources {
		// Format: [N] file.pdf, page 3 - Section (0.87)
		location := s.DocumentName
		switch {
		case s.PageNumber > 0:
			location += fmt.Sprintf(", page %d", s.PageNumber)
		case s.SheetName != "":
			location += ", sheet " + s.SheetName
		}
		if s.SectionTitle != "" {
			location += " - " + s.SectionTitle
		}
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, location, s.Score)
	}
}
