package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/muhammadolammi/careerzync/internal/advisor"
	"github.com/muhammadolammi/careerzync/internal/ats"
	"github.com/muhammadolammi/careerzync/internal/chat"
	"github.com/muhammadolammi/careerzync/internal/resume"
	"github.com/spf13/cobra"
)

var (
	resumePath     string
	jobTitle       string
	jobDescription string
	assumedScore   float64
	noChat         bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a resume locally and chat about it",
	Long:  "Analyze runs the full pipeline in-process without the database or queue, prints the report and then answers questions read from stdin.",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&resumePath, "resume", "r", "", "path to the resume (pdf, docx or txt)")
	analyzeCmd.Flags().StringVarP(&jobTitle, "title", "t", "", "target job title")
	analyzeCmd.Flags().StringVarP(&jobDescription, "description", "d", "", "job description; scraped when empty")
	analyzeCmd.Flags().Float64Var(&assumedScore, "assumed", ats.DefaultAssumedScore, "ATS pass percentage you expect")
	analyzeCmd.Flags().BoolVar(&noChat, "no-chat", false, "exit after printing the report")
	_ = analyzeCmd.MarkFlagRequired("resume")
	_ = analyzeCmd.MarkFlagRequired("title")
}

type asker interface {
	Ask(ctx context.Context, conversationID, query string) (string, error)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := setupLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.requireLLM(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	data, err := os.ReadFile(resumePath)
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}

	m, err := newModels(ctx, cfg, log)
	if err != nil {
		return err
	}

	log.Info("analyzing resume", "file", filepath.Base(resumePath), "title", jobTitle)
	out := cmd.OutOrStdout()
	outcome, err := m.Pipeline.Run(ctx, advisor.Input{
		ResumeMime:     resume.DetectMime("", resumePath),
		Resume:         data,
		JobTitle:       jobTitle,
		JobDescription: jobDescription,
	})
	if err != nil {
		return err
	}
	printReport(out, outcome, assumedScore)

	conversationID := uuid.New().String()
	if path, err := outcome.Index.SaveFile(cfg.IndexDir, conversationID); err != nil {
		log.Warn("failed to save index", "err", err)
	} else {
		log.Info("index saved", "path", path)
	}
	if noChat {
		return nil
	}

	responder, err := chat.NewResponder(outcome.Index, m.Gemini, m.Chat, jobTitle, log)
	if err != nil {
		return err
	}
	defer m.Chat.End(context.Background(), conversationID)
	return chatLoop(ctx, responder, conversationID, cmd.InOrStdin(), out)
}

func printReport(w io.Writer, outcome *advisor.Outcome, assumed float64) {
	res := outcome.Result
	fmt.Fprintf(w, "ATS compatibility score: %.1f%%\n", res.Score)
	fmt.Fprintln(w, ats.Compare(res, assumed).Summary())

	fmt.Fprintln(w, "\nResume sections:")
	for _, name := range resume.SectionNames {
		fmt.Fprintf(w, "  %s: %d item(s)\n", name, len(outcome.Sections[name]))
	}
	for _, f := range res.Fields() {
		fmt.Fprintf(w, "\n%s:\n", strings.ReplaceAll(f.Key, "_", " "))
		if len(f.Values) == 0 {
			fmt.Fprintln(w, "  (none)")
			continue
		}
		for _, v := range f.Values {
			fmt.Fprintf(w, "  - %s\n", v)
		}
	}
	fmt.Fprintln(w)
}

// chatLoop answers one question per input line until EOF, an empty line or "exit".
func chatLoop(ctx context.Context, a asker, conversationID string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "Ask about your resume or the job role (empty line to quit).")
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" || strings.EqualFold(query, "exit") {
			return nil
		}
		answer, err := a.Ask(ctx, conversationID, query)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, answer)
	}
}
