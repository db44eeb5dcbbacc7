package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/config"
	applog "alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/services"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type screenFlags struct {
	jobs       []string
	resumesDir string
	outDir     string
	skills     []string
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	flags := &screenFlags{}

	cmd := &cobra.Command{
		Use:   "screen --jd <file>... --resumes <dir>",
		Short: "Rank resumes against job descriptions and write CSV and PDF reports",
		Long: "screen extracts text from every resume in a directory, scores each one " +
			"against every job description and writes <jd>_results.csv and " +
			"<jd>_results.pdf to the output directory. No database is needed.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			logger, err := applog.New(cfg.Log.JSON, cfg.Log.Debug)
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runScreen(ctx, cfg, flags, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&flags.jobs, "jd", nil, "job description file (repeatable, - reads stdin)")
	f.StringVar(&flags.resumesDir, "resumes", "", "directory of resumes (pdf, docx, txt)")
	f.StringVar(&flags.outDir, "out", ".", "directory for the reports")
	f.StringSliceVar(&flags.skills, "skills", nil, "skills highlighted with a distinct marker")
	f.Int("keywords", 20, "number of job description keywords")
	f.Int("max-snippets", 3, "maximum evidence snippets per resume")
	f.Float64("alpha", 0.7, "weight of the lexical score when the semantic backend is available")
	f.Bool("semantic", true, "use the embedding backend when it is configured")
	f.Bool("debug", false, "debug logging")
	_ = cmd.MarkFlagRequired("jd")
	_ = cmd.MarkFlagRequired("resumes")

	for key, flag := range map[string]string{
		"KEYWORD_COUNT":    "keywords",
		"MAX_SNIPPETS":     "max-snippets",
		"SCORE_ALPHA":      "alpha",
		"SEMANTIC_ENABLED": "semantic",
		"LOG_DEBUG":        "debug",
	} {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}

	return cmd
}

func runScreen(ctx context.Context, cfg *config.Config, flags *screenFlags, stdin io.Reader, stdout io.Writer, logger *zap.Logger) error {
	jobs, err := loadJobDescriptions(flags.jobs, stdin)
	if err != nil {
		return err
	}
	resumes, err := loadResumes(flags.resumesDir, logger)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(flags.outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	backends, closeBackends := services.ResolveBackends(ctx, cfg, logger)
	defer closeBackends()

	screener := services.NewScreenerService(backends, cfg.Screening.Alpha, logger)
	results := screener.ScreenBatch(ctx, jobs, resumes, services.ScreenOptions{
		KeywordCount: cfg.Screening.KeywordCount,
		MaxSnippets:  cfg.Screening.MaxSnippets,
		Skills:       flags.skills,
		Concurrency:  cfg.Worker.Concurrency,
	})

	failed := 0
	for _, result := range results {
		if result.Err != nil {
			failed++
			fmt.Fprintf(stdout, "%s: cannot proceed: %v\n", result.JobName, result.Err)
			continue
		}
		if err := writeReports(flags.outDir, result.Table); err != nil {
			return err
		}
		printTable(stdout, result.Table)
	}

	if failed == len(results) {
		return errors.New("no job description could be screened")
	}
	return nil
}

func loadJobDescriptions(paths []string, stdin io.Reader) ([]models.Document, error) {
	docs := make([]models.Document, 0, len(paths))
	for _, path := range paths {
		if path == "-" {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("failed to read job description from stdin: %w", err)
			}
			docs = append(docs, models.NewUpload("stdin.txt", data))
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("job description %s: %w", path, err)
		}
		docs = append(docs, models.NewFileDocument(path))
	}
	return docs, nil
}

// loadResumes lists supported files in name order; others are skipped.
func loadResumes(dir string, logger *zap.Logger) ([]models.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read resumes directory: %w", err)
	}

	var docs []models.Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if models.FormatFromFilename(entry.Name()) == models.FormatUnknown {
			logger.Debug("skipping unsupported file", zap.String("file", entry.Name()))
			continue
		}
		docs = append(docs, models.NewFileDocument(filepath.Join(dir, entry.Name())))
	}
	return docs, nil
}

func writeReports(outDir string, table *models.ResultTable) error {
	builders := []struct {
		ext   string
		build func(*models.ResultTable) ([]byte, error)
	}{
		{"csv", services.BuildCSV},
		{"pdf", services.BuildPDF},
	}
	for _, b := range builders {
		data, err := b.build(table)
		if err != nil {
			return fmt.Errorf("%s report for %s: %w", b.ext, table.JobName, err)
		}
		path := filepath.Join(outDir, services.ReportFilename(table.JobName, b.ext))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}

func printTable(w io.Writer, table *models.ResultTable) {
	fmt.Fprintf(w, "\n%s\n%s\n", table.JobName, strings.Repeat("=", len(table.JobName)))
	fmt.Fprintf(w, "keywords: %s\n", strings.Join(models.Terms(table.Keywords), ", "))
	for i, row := range table.Rows {
		fmt.Fprintf(w, "%2d. %-40s %6.2f%%  %-8s %s\n", i+1, row.Resume, row.Percent, row.Band, row.KeywordString())
	}
}
