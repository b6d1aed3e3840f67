package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-translate/internal/config"
	"github.com/alnah/go-translate/internal/document"
	"github.com/alnah/go-translate/internal/format"
	"github.com/alnah/go-translate/internal/lang"
	"github.com/alnah/go-translate/internal/output"
	"github.com/alnah/go-translate/internal/pipeline"
)

// translateOptions holds the translate command flags.
type translateOptions struct {
	target    string
	outputDir string
	provider  string
	model     string
	parallel  int
	private   bool
	zip       bool
	noSummary bool
}

// TranslateCmd creates the translate command.
// The env parameter provides injectable dependencies for testing.
func TranslateCmd(env *Env) *cobra.Command {
	var opts translateOptions

	cmd := &cobra.Command{
		Use:   "translate <file>... -T <language>",
		Short: "Translate documents",
		Long: `Translate documents into a target language.

Each document is split into chunks that fit the model's context window,
translated chunk by chunk, and written next to the others in the output
directory as <name>_translated.<ext>. A short summary of each translation
is printed to stdout. When more than one document succeeds, the outputs are
also bundled into translations.zip.

A document that cannot be read, is too large or fails to translate does not
stop the others.

Supported formats: ` + strings.Join(document.SupportedExtensions(), ", "),
		Example: `  translate translate report.docx -T French
  translate translate notes.md paper.pdf -T pt-BR -o ~/translations
  translate translate contract.txt -T de --private --provider vertex
  translate translate *.txt -T es --parallel 4 --no-summary`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd.Context(), env, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.target, "target", "T", "", "Target language (name or code, e.g. French, fr, pt-BR)")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Output directory (default: config output-dir or current directory)")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "Translation provider: openai, deepseek, vertex (default: config provider)")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Model name (default: config model or provider default)")
	cmd.Flags().IntVarP(&opts.parallel, "parallel", "p", 0, "Max concurrent chunk requests per document (1-10)")
	cmd.Flags().BoolVar(&opts.private, "private", false, "Do not read or write the translation cache")
	cmd.Flags().BoolVar(&opts.zip, "zip", true, "Bundle outputs into translations.zip when more than one succeeds")
	cmd.Flags().BoolVar(&opts.noSummary, "no-summary", false, "Skip the summary of each translation")

	return cmd
}

// runTranslate executes the translation pipeline.
// Validation order: target -> input files -> session -> output dir
func runTranslate(ctx context.Context, env *Env, paths []string, opts translateOptions) error {
	start := env.Now()

	// === VALIDATION (fail-fast) ===

	if strings.TrimSpace(opts.target) == "" {
		return fmt.Errorf("%w (use --target, e.g. -T French)", ErrTargetMissing)
	}
	target, err := lang.Parse(opts.target)
	if err != nil {
		return err
	}

	inputs, err := readInputs(paths)
	if err != nil {
		return err
	}

	s, err := newSession(ctx, env, sessionOptions{
		provider: opts.provider,
		model:    opts.model,
		parallel: opts.parallel,
		private:  opts.private,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			fmt.Fprintf(env.Stderr, "Warning: %v\n", err)
		}
	}()

	outDir := opts.outputDir
	if outDir == "" {
		outDir = s.cfg.OutputDir
	}
	if outDir == "" {
		outDir = "."
	}
	outDir = config.ExpandPath(outDir)
	if err := config.EnsureOutputDir(outDir); err != nil {
		return fmt.Errorf("invalid output directory: %w", err)
	}

	// === TRANSLATION ===

	printer := newProgressPrinter(env)
	pipeOpts := []pipeline.Option{
		pipeline.WithCache(s.cache),
		pipeline.WithLogger(env.logger()),
		pipeline.WithEstimateHook(printer.estimate),
		pipeline.WithProgress(printer.chunk),
	}
	if !opts.noSummary {
		pipeOpts = append(pipeOpts, pipeline.WithSummarizer(s.client))
	}
	p := pipeline.New(s.limits(), s.counter, s.client, pipeOpts...)

	fmt.Fprintf(env.Stderr, "Translating %d document(s) into %s (provider: %s)...\n",
		len(inputs), target.DisplayName(), s.provider)

	results, err := p.Process(ctx, inputs, target)
	printer.endLine()
	if err != nil {
		return err
	}

	// === WRITE OUTPUT ===

	var failures []error
	for i := range results {
		r := &results[i]
		if r.Err == nil {
			path := filepath.Join(outDir, r.OutputName)
			if err := writeFileAtomic(path, r.Output); err != nil {
				r.Err = err
			} else {
				fmt.Fprintf(env.Stderr, "Done: %s\n", path)
			}
		}
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "Error: %s: %v\n", r.Name, r.Err)
			failures = append(failures, r.Err)
			continue
		}
		for _, w := range r.Warnings {
			fmt.Fprintf(env.Stderr, "Warning: %s: %v\n", r.Name, w)
		}
		if r.Summary != "" {
			fmt.Fprintf(env.Stdout, "Summary of %s (source language: %s):\n%s\n\n", r.Name, r.SourceLang, r.Summary)
		}
	}

	if opts.zip {
		if err := writeBundle(env, outDir, results); err != nil {
			failures = append(failures, err)
		}
	}

	total := pipeline.Total(results)
	fmt.Fprintf(env.Stderr, "Total: %s tokens, %s (%s)\n",
		format.Tokens(total.Tokens), format.Cost(total.Cost), format.Duration(env.Now().Sub(start)))

	if err := ctx.Err(); err != nil {
		return err
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d of %d documents failed: %w", len(failures), len(results), failures[0])
	}
	return nil
}

// writeBundle writes translations.zip when more than one output succeeded.
func writeBundle(env *Env, outDir string, results []pipeline.Result) error {
	data, bundled, err := pipeline.Archive(results)
	if err != nil {
		return err
	}
	if !bundled {
		return nil
	}
	path := filepath.Join(outDir, output.BundleName)
	if err := writeFileAtomic(path, data); err != nil {
		fmt.Fprintf(env.Stderr, "Error: %v\n", err)
		return err
	}
	fmt.Fprintf(env.Stderr, "Bundle: %s\n", path)
	return nil
}

// readInputs reads every path. A missing file fails the whole run before
// any request is made.
func readInputs(paths []string) ([]pipeline.Input, error) {
	inputs := make([]pipeline.Input, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrFileNotFound, p)
			}
			return nil, fmt.Errorf("cannot access input file: %w", err)
		}
		data, err := os.ReadFile(p) // #nosec G304 -- user-specified input file
		if err != nil {
			return nil, fmt.Errorf("cannot read input file: %w", err)
		}
		inputs = append(inputs, pipeline.Input{Name: filepath.Base(p), Data: data})
	}
	return inputs, nil
}
