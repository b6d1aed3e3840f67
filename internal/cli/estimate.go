package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/go-translate/internal/format"
	"github.com/alnah/go-translate/internal/pipeline"
)

// EstimateCmd creates the estimate command.
func EstimateCmd(env *Env) *cobra.Command {
	var provider, model string

	cmd := &cobra.Command{
		Use:   "estimate <file>...",
		Short: "Estimate the token count and cost of translating documents",
		Long: `Estimate the token count and cost of translating documents.

No request is sent to the provider. The cost uses the configured
price-per-1k and the tokenizer of the configured model.`,
		Example: `  translate estimate report.docx
  translate estimate *.md --model gpt-4o`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstimate(cmd.Context(), env, args, provider, model)
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider whose default model is used for counting")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model whose tokenizer is used")

	return cmd
}

// runEstimate prints one line per document and a total to stdout.
func runEstimate(ctx context.Context, env *Env, paths []string, provider, model string) error {
	inputs, err := readInputs(paths)
	if err != nil {
		return err
	}

	s, err := newSession(ctx, env, sessionOptions{provider: provider, model: model, noClient: true})
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	p := pipeline.New(s.limits(), s.counter, nil, pipeline.WithLogger(env.logger()))
	results := p.Estimate(ctx, inputs)

	var failures []error
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "Error: %s: %v\n", r.Name, r.Err)
			failures = append(failures, r.Err)
			continue
		}
		fmt.Fprintf(env.Stdout, "%-32s %12s tokens  %s\n", r.Name, format.Tokens(r.Estimate.Tokens), format.Cost(r.Estimate.Cost))
	}

	total := pipeline.Total(results)
	fmt.Fprintf(env.Stdout, "%-32s %12s tokens  %s\n", "Total", format.Tokens(total.Tokens), format.Cost(total.Cost))

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d documents failed: %w", len(failures), len(results), failures[0])
	}
	return nil
}
