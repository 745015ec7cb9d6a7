package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/dgallion1/docsum/internal/document"
	"github.com/dgallion1/docsum/internal/report"
)

// Reporter turns the combined text of a batch into a markdown report.
type Reporter interface {
	Generate(ctx context.Context, combined string) (string, error)
}

// Batch is one submitted set of documents.
type Batch struct {
	ID        string
	Documents []document.Document
	// Cleanup removes the batch's uploads plus any extra paths. May be nil.
	Cleanup func(extra ...string)
}

// Outcome is the result of a completed batch.
type Outcome struct {
	BatchID        string
	FilesProcessed int
	Combined       CombinedText
	Report         string
	ReportHTML     string
	DebugPath      string
}

// OutcomeReport is the JSON shape of an Outcome.
type OutcomeReport struct {
	BatchID             string            `json:"batch_id"`
	Report              string            `json:"report"`
	ReportHTML          string            `json:"report_html,omitempty"`
	FilesProcessed      int               `json:"files_processed"`
	TextsCombined       int               `json:"texts_combined"`
	TotalCharacters     int               `json:"total_characters"`
	Merged              bool              `json:"merged"`
	StrategyPerDocument map[string]string `json:"strategy_per_document"`
}

// Response is the JSON shape returned to API callers.
func (o Outcome) Response() OutcomeReport {
	strategies := make(map[string]string)
	for _, b := range o.Combined.Blocks {
		for _, src := range b.Sources {
			strategies[src.Name] = b.Strategy
		}
	}
	return OutcomeReport{
		BatchID:             o.BatchID,
		Report:              o.Report,
		ReportHTML:          o.ReportHTML,
		FilesProcessed:      o.FilesProcessed,
		TextsCombined:       len(o.Combined.Sources()),
		TotalCharacters:     utf8.RuneCountInString(o.Combined.Text),
		Merged:              o.Combined.Merged,
		StrategyPerDocument: strategies,
	}
}

// Service runs a batch end to end: extraction, optional debug copy of the
// combined text, report generation and cleanup.
type Service struct {
	pipeline *Pipeline
	reporter Reporter
	debugDir string // empty disables debug persistence
	log      *slog.Logger
}

func NewService(p *Pipeline, reporter Reporter, debugDir string, log *slog.Logger) *Service {
	return &Service{pipeline: p, reporter: reporter, debugDir: debugDir, log: log}
}

// Run processes b. Uploaded files and any merged file are removed before
// Run returns, whatever the outcome. track, if not nil, receives phase
// changes.
func (s *Service) Run(ctx context.Context, b Batch, track func(JobStatus)) (out Outcome, err error) {
	if track == nil {
		track = func(JobStatus) {}
	}
	log := s.log.With("batch_id", b.ID)
	out = Outcome{BatchID: b.ID, FilesProcessed: len(b.Documents)}

	combined, err := s.pipeline.ProcessTracked(ctx, b.Documents, track)
	defer func() {
		if b.Cleanup != nil {
			b.Cleanup(combined.MergedPath)
		}
	}()
	if err != nil {
		return out, fmt.Errorf("process batch: %w", err)
	}
	out.Combined = combined

	if s.debugDir != "" {
		path, err := PersistDebug(s.debugDir, b.ID, combined.Text)
		if err != nil {
			log.Error("cannot save debug text", "error", err)
		} else {
			out.DebugPath = path
			log.Info("combined text saved", "path", path)
		}
	}

	if s.reporter == nil {
		return out, nil
	}
	track(StatusReporting)
	log.Info("generating report", "chars", utf8.RuneCountInString(combined.Text))
	md, err := s.reporter.Generate(ctx, combined.Text)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrReportFailed, err)
	}
	out.Report = md

	html, err := report.RenderHTML(md)
	if err != nil {
		log.Warn("report html rendering failed", "error", err)
	} else {
		out.ReportHTML = html
	}
	return out, nil
}
