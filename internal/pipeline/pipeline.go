package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/docsum/internal/document"
	"github.com/dgallion1/docsum/internal/extract"
	"github.com/dgallion1/docsum/internal/merge"
)

// Extractor returns the text of one document.
type Extractor interface {
	Extract(ctx context.Context, doc document.Document) extract.Result
}

// Merger combines documents into one. The result lists the inputs that
// made it into the merged document.
type Merger interface {
	Merge(ctx context.Context, docs []document.Document) (merge.Result, error)
}

// Source identifies an input document by its 1-based batch position.
type Source struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// Block is one extracted text in the combined output. A block from a merged
// document holds the text of several inputs, listed in Sources.
type Block struct {
	Sources  []Source `json:"sources"`
	Strategy string   `json:"strategy"`
	Chars    int      `json:"chars"`
	Text     string   `json:"-"`
}

// CombinedText is the text of a whole batch, ready for report generation.
type CombinedText struct {
	Text   string
	Blocks []Block
	// Merged is set when the text came from a single merged document.
	Merged bool
	// MergedPath is the merged file written for this batch, if any. The
	// caller owns it and removes it during cleanup.
	MergedPath string
}

// Sources lists the input documents whose text made it into the result, in
// input order.
func (c CombinedText) Sources() []Source {
	var out []Source
	for _, b := range c.Blocks {
		out = append(out, b.Sources...)
	}
	return out
}

// Pipeline turns an ordered batch of PDFs into one combined text.
type Pipeline struct {
	extractor    Extractor
	merger       Merger
	mergeEnabled bool
	log          *slog.Logger
}

func New(extractor Extractor, merger Merger, mergeEnabled bool, log *slog.Logger) *Pipeline {
	return &Pipeline{extractor: extractor, merger: merger, mergeEnabled: mergeEnabled && merger != nil, log: log}
}

// Process extracts and combines the text of docs.
func (p *Pipeline) Process(ctx context.Context, docs []document.Document) (CombinedText, error) {
	return p.ProcessTracked(ctx, docs, nil)
}

// ProcessTracked is Process with a callback invoked as the batch moves
// between the merging and extracting phases.
//
// With two or more documents and merging enabled, the documents are merged
// and the merged file is extracted once, giving a single block headed with
// the inputs the merge included. If merging
// fails, each document is extracted on its own in input order and documents
// without text are skipped. An empty result is ErrNoExtractableText; the
// returned CombinedText still carries MergedPath so it can be cleaned up.
func (p *Pipeline) ProcessTracked(ctx context.Context, docs []document.Document, track func(JobStatus)) (CombinedText, error) {
	if track == nil {
		track = func(JobStatus) {}
	}
	if len(docs) == 0 {
		return CombinedText{}, &InputError{Err: merge.ErrNoDocuments}
	}
	for _, d := range docs {
		if err := checkInput(d); err != nil {
			return CombinedText{}, err
		}
	}

	var out CombinedText
	if p.mergeEnabled && len(docs) > 1 {
		track(StatusMerging)
		merged, err := p.merger.Merge(ctx, docs)
		if err != nil {
			p.log.Warn("merge failed, extracting documents separately", "documents", len(docs), "error", err)
		} else {
			if merged.Created {
				out.MergedPath = merged.Document.Path
			}
			track(StatusExtracting)
			res := p.extractor.Extract(ctx, merged.Document)
			out.Merged = true
			if res.OK() {
				out.Blocks = []Block{newBlock(res, merged.Included...)}
			}
			return p.finish(ctx, out)
		}
	}

	track(StatusExtracting)
	for i, d := range docs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		p.log.Info("extracting document", "document", d.Name, "position", i+1, "total", len(docs))
		res := p.extractor.Extract(ctx, d)
		if !res.OK() {
			p.log.Warn("no text extracted from document", "document", d.Name)
			continue
		}
		out.Blocks = append(out.Blocks, newBlock(res, d))
	}
	return p.finish(ctx, out)
}

func (p *Pipeline) finish(ctx context.Context, out CombinedText) (CombinedText, error) {
	if err := ctx.Err(); err != nil {
		return out, err
	}
	if len(out.Blocks) == 0 {
		return out, ErrNoExtractableText
	}
	out.Text = combine(out.Blocks)
	p.log.Info("combined text ready", "blocks", len(out.Blocks), "merged", out.Merged, "chars", len(out.Text))
	return out, nil
}

func newBlock(res extract.Result, docs ...document.Document) Block {
	b := Block{Strategy: res.Strategy, Chars: res.Chars, Text: res.Text}
	for _, d := range docs {
		b.Sources = append(b.Sources, Source{Index: d.Index, Name: d.Name})
	}
	return b
}

func checkInput(d document.Document) error {
	info, err := os.Stat(d.Path)
	if err != nil {
		return &InputError{Document: d.Name, Err: err}
	}
	if !info.Mode().IsRegular() {
		return &InputError{Document: d.Name, Err: errors.New("not a regular file")}
	}
	if !strings.EqualFold(filepath.Ext(d.Path), ".pdf") {
		return &InputError{Document: d.Name, Err: ErrUnsupportedFormat}
	}
	return nil
}

var (
	blockRule  = strings.Repeat("=", 60)
	headerRule = strings.Repeat("=", 80)
)

// formatBlock heads a block with "DOCUMENT 1: a.pdf", or with
// "DOCUMENTS 1, 3: a.pdf, c.pdf" for a merged block.
func formatBlock(b Block) string {
	label := "DOCUMENT"
	if len(b.Sources) > 1 {
		label = "DOCUMENTS"
	}
	idx := make([]string, len(b.Sources))
	names := make([]string, len(b.Sources))
	for i, s := range b.Sources {
		idx[i] = strconv.Itoa(s.Index)
		names[i] = s.Name
	}
	return fmt.Sprintf("\n\n%s\n%s %s: %s\n%s\n\n%s",
		blockRule, label, strings.Join(idx, ", "), strings.Join(names, ", "), blockRule, b.Text)
}

func combine(blocks []Block) string {
	n := 0
	for _, b := range blocks {
		n += len(b.Sources)
	}
	var sb strings.Builder
	if n == 1 {
		sb.WriteString("DOCUMENT ANALYSIS\n")
	} else {
		fmt.Fprintf(&sb, "COMBINED ANALYSIS OF %d DOCUMENTS\n", n)
	}
	sb.WriteString(headerRule)
	sb.WriteString("\n")
	for _, b := range blocks {
		sb.WriteString(formatBlock(b))
	}
	return sb.String()
}

// PersistDebug writes text to combined_text_debug_<batchID>.txt in dir.
func PersistDebug(dir, batchID, text string) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("combined_text_debug_%s.txt", batchID))
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		return "", fmt.Errorf("write debug text: %w", err)
	}
	return path, nil
}
