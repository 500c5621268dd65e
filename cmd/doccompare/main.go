// Command doccompare 2つの文書を比較して差分を表示するCLI
//
//	doccompare [-config path] [-mode line|sentence|both] [-json] [-watch] original comparison
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"doc-compare-app/internal/config"
	"doc-compare-app/internal/modules/comparison/domain"
	"doc-compare-app/internal/modules/shared/infrastructure/filewatcher"
	"doc-compare-app/internal/presentation/di"
)

// options コマンドライン引数
type options struct {
	configPath string
	modes      []domain.Mode
	jsonOutput bool
	watch      bool
	original   string
	comparison string
}

// parseArgs 引数を解析する
func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("doccompare", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	mode := "both"
	fs.StringVar(&opts.configPath, "config", defaultConfigPath(), "path to config.yaml")
	fs.StringVar(&mode, "mode", mode, "comparison mode: line, sentence or both")
	fs.BoolVar(&opts.jsonOutput, "json", false, "print the result as JSON")
	fs.BoolVar(&opts.watch, "watch", false, "re-run the comparison when either file changes")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: doccompare [flags] <original> <comparison>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return nil, fmt.Errorf("expected 2 files, got %d", fs.NArg())
	}
	opts.original = fs.Arg(0)
	opts.comparison = fs.Arg(1)

	switch mode {
	case "both":
		opts.modes = []domain.Mode{domain.ModeLine, domain.ModeSentence}
	default:
		m, ok := domain.ParseMode(mode)
		if !ok {
			return nil, fmt.Errorf("unknown mode: %s", mode)
		}
		opts.modes = []domain.Mode{m}
	}

	return opts, nil
}

func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".doc-compare-app", "config.yaml")
}

// run CLIの本体（テスト可能にするため分離）
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "path", opts.configPath, "error", err)
		cfg = config.DefaultConfig()
	}

	container, err := di.NewContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize DI container: %w", err)
	}
	defer func() { _ = container.Close() }()

	compare := func() error {
		result, err := container.ComparisonUseCase().CompareDocuments(ctx, opts.original, opts.comparison, opts.modes...)
		if err != nil {
			return fmt.Errorf("failed to compare documents: %w", err)
		}
		if opts.jsonOutput {
			return writeJSON(stdout, result)
		}
		return writeText(stdout, result)
	}

	if err := compare(); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}

	watcher, err := filewatcher.NewFSNotifyWatcher([]string{opts.original, opts.comparison}, filewatcher.DefaultDebounce)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer func() { _ = watcher.Stop() }()

	fmt.Fprintf(stderr, "Watching %s and %s (Ctrl+C to stop)\n", opts.original, opts.comparison)
	for path := range watcher.Watch(ctx) {
		fmt.Fprintf(stdout, "\n--- %s changed ---\n", path)
		// 保存途中のファイルで失敗しても監視は続ける
		if err := compare(); err != nil {
			slog.Error("Comparison failed", "error", err)
		}
	}
	return nil
}

// writeJSON 比較結果をJSONで出力
func writeJSON(w io.Writer, result *domain.ComparisonResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

// writeText 比較結果を差分表示形式で出力
func writeText(w io.Writer, result *domain.ComparisonResult) error {
	for _, mr := range []*domain.ModeResult{result.Line, result.Sentence} {
		if mr == nil {
			continue
		}
		s := mr.Statistics
		fmt.Fprintf(w, "[%s] total=%d unchanged=%d added=%d removed=%d modified=%d change=%d%%\n",
			mr.Mode, s.Total, s.Unchanged, s.Added, s.Removed, s.Modified, s.ChangePercentage)
		for _, c := range mr.Changes {
			fmt.Fprintln(w, formatChange(c))
		}
		fmt.Fprintln(w)
	}

	if a := result.Analysis; a != nil {
		fmt.Fprintf(w, "Summary (%s, %s): %s\n", result.AnalysisSource, a.Significance, a.Summary)
		for _, k := range a.KeyChanges {
			fmt.Fprintf(w, "  * %s\n", k)
		}
	}
	return nil
}

// formatChange 1エントリを1行で表す
func formatChange(c domain.Change) string {
	switch c.Type {
	case domain.ChangeAdded:
		return "+ " + c.Comparison()
	case domain.ChangeRemoved:
		return "- " + c.Original()
	case domain.ChangeModified:
		return "~ " + c.Original() + " => " + c.Comparison()
	default:
		return "  " + c.Comparison()
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "doccompare: %v\n", err)
		os.Exit(1)
	}
}
