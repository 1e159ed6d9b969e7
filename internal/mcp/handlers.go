package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/docqa/internal/jobs"
	"github.com/bull/docqa/internal/qa"
)

// makeAskHandler creates the ask_document tool handler.
// An unknown job is reported with Found=false rather than as a tool error.
func makeAskHandler(service *qa.Service) func(
	context.Context, *mcp.CallToolRequest, AskDocumentInput,
) (*mcp.CallToolResult, AskDocumentOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskDocumentInput) (
		*mcp.CallToolResult, AskDocumentOutput, error,
	) {
		answer, err := service.Ask(ctx, input.JobID, input.Question)
		if err != nil {
			if errors.Is(err, jobs.ErrJobNotFound) {
				return nil, AskDocumentOutput{
					JobID:      input.JobID,
					CitedPages: []int{},
					Found:      false,
					Message:    "No document found for this job id. Ingest the document first.",
				}, nil
			}
			return nil, AskDocumentOutput{}, err
		}

		pages := answer.CitedPages
		if pages == nil {
			pages = []int{}
		}
		return nil, AskDocumentOutput{
			JobID:      input.JobID,
			Answer:     answer.Text,
			CitedPages: pages,
			Found:      true,
		}, nil
	}
}

// makeStatusHandler creates the document_status tool handler.
func makeStatusHandler(service *qa.Service) func(
	context.Context, *mcp.CallToolRequest, DocumentStatusInput,
) (*mcp.CallToolResult, DocumentStatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input DocumentStatusInput) (
		*mcp.CallToolResult, DocumentStatusOutput, error,
	) {
		report := service.Status(ctx, input.JobID)

		out := DocumentStatusOutput{
			JobID:            report.JobID,
			InMemory:         report.InMemory,
			IndexAvailable:   report.Index.Available,
			CollectionExists: report.Index.Exists,
			DocumentCount:    report.Index.DocumentCount,
			IndexError:       report.Index.Error,
		}
		if report.Job != nil {
			out.Filename = report.Job.Filename
			out.State = string(report.Job.State)
			out.Error = report.Job.Error
		}
		return nil, out, nil
	}
}

// makeIngestHandler creates the ingest_document tool handler.
// Ingestion failures are returned in the output alongside the job id; only
// an unreadable path is a tool error.
func makeIngestHandler(service *qa.Service, maxBytes int64, logger *slog.Logger) func(
	context.Context, *mcp.CallToolRequest, IngestDocumentInput,
) (*mcp.CallToolResult, IngestDocumentOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IngestDocumentInput) (
		*mcp.CallToolResult, IngestDocumentOutput, error,
	) {
		raw, err := readLocalFile(input.Path, maxBytes)
		if err != nil {
			return nil, IngestDocumentOutput{}, err
		}

		filename := filepath.Base(input.Path)
		jobID, err := service.Submit(ctx, filename, raw)
		out := IngestDocumentOutput{
			JobID:    jobID,
			Filename: filename,
			State:    string(jobs.StateReady),
		}
		if err != nil {
			logger.Warn("Ingest tool failed", "job_id", jobID, "path", input.Path, "error", err)
			out.State = string(jobs.StateFailed)
			out.Error = err.Error()
		}
		return nil, out, nil
	}
}

func readLocalFile(path string, maxBytes int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if maxBytes > 0 && int64(len(raw)) > maxBytes {
		return nil, fmt.Errorf("%s exceeds the %d byte upload limit", path, maxBytes)
	}
	return raw, nil
}
