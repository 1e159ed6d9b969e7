// Package main provides the docqa CLI for ingesting documents and asking questions about them.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/docqa/internal/app"
	"github.com/bull/docqa/internal/config"
	ghclient "github.com/bull/docqa/internal/github"
	"github.com/bull/docqa/internal/jobs"
)

const envHelp = `Environment variables:
  QDRANT_HOST        Qdrant hostname (default: localhost)
  QDRANT_PORT        Qdrant gRPC port (default: 6334)
  INDEX_BACKEND      qdrant or memory (default: qdrant)
  EMBEDDING_BACKEND  openai or hash (default: openai)
  OPENAI_API_KEY     OpenAI API key for embeddings and answers
  CHAT_MODEL         Chat model for answers (default: gpt-3.5-turbo)
  RESPONSE_LANGUAGE  es or en (default: es)
  GITHUB_TOKEN       GitHub token for higher rate limits (optional)`

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Document question answering tool",
	Long: `CLI tool for ingesting documents into the index and asking questions about them.

Every command runs in a fresh process, so ask and status rely on the
persisted Qdrant index to recover jobs ingested earlier.

` + envHelp,
	SilenceUsage: true,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a local file or a GitHub file and print its job id",
	Long: `Extracts passages from a .pdf, .md or .txt document and indexes them.

The document is read from the local path argument, or from GitHub with
--github owner/repo/path[@ref].`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

var askCmd = &cobra.Command{
	Use:   "ask <job-id> <question>",
	Short: "Ask a question about an ingested document",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runAsk,
}

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the ingestion status and index size of a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var githubSource string

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")
	ingestCmd.Flags().StringVar(&githubSource, "github", "", "Fetch the document from GitHub (owner/repo/path[@ref])")

	rootCmd.AddCommand(ingestCmd, askCmd, statusCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func setup(cmd *cobra.Command) (context.Context, context.CancelFunc, *app.App, error) {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	a, err := app.New(config.Load(), newLogger())
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return ctx, cancel, a, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	if (len(args) == 1) == (githubSource != "") {
		return errors.New("pass exactly one of a file path or --github")
	}

	ctx, cancel, a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	defer a.Close()

	var (
		filename string
		raw      []byte
	)
	if githubSource != "" {
		filename, raw, err = fetchFromGitHub(ctx, a.Config.GitHubToken, githubSource)
	} else {
		filename = filepath.Base(args[0])
		raw, err = os.ReadFile(args[0])
	}
	if err != nil {
		return err
	}
	if int64(len(raw)) > a.Config.MaxUploadBytes {
		return fmt.Errorf("%s exceeds max size (%d bytes)", filename, a.Config.MaxUploadBytes)
	}

	start := time.Now()
	jobID, err := a.Service.Submit(ctx, filename, raw)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Ingestion failed for job %s: %v\n", jobID, err)
		return err
	}

	count, _ := a.Store.CountRecords(ctx, jobID)
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jobID)
	fmt.Fprintf(cmd.ErrOrStderr(), "Indexed %s: %d passages in %s\n", filename, count, time.Since(start).Round(time.Millisecond))
	return nil
}

func fetchFromGitHub(ctx context.Context, token, source string) (string, []byte, error) {
	src, err := ghclient.ParseSource(source)
	if err != nil {
		return "", nil, err
	}
	client, err := ghclient.NewClient(token)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	fetcher := ghclient.NewFetcher(client)

	doc, err := fetcher.FetchFile(ctx, src)
	if err != nil {
		return "", nil, err
	}
	if sha, err := fetcher.LatestCommitSHA(ctx, src); err == nil {
		slog.Default().Debug("Fetched from GitHub", "source", src.String(), "commit", sha, "url", doc.URL)
	}
	return src.Filename(), doc.Content, nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel, a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	defer a.Close()

	jobID := args[0]
	question := strings.Join(args[1:], " ")

	answer, err := a.Service.Ask(ctx, jobID, question)
	if errors.Is(err, jobs.ErrJobNotFound) {
		return fmt.Errorf("no document found for job %s", jobID)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), answer.Text)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel, a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	defer a.Close()

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(a.Service.Status(ctx, args[0]))
}
