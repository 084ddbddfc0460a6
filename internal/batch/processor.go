// Package batch drives the invoice pipeline over directories of order files.
//
// Each input file is one record. A file is read, checked, assembled and
// written as <invoice number>.json (plus an optional PDF) into the output
// directory, and only after that write succeeded is the input moved to the
// processed directory. Any failure moves the input to the error directory
// instead, next to a <name>.error.txt holding the reason. One failing record
// never stops the batch.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"invoicer/internal/invoice"
	"invoicer/internal/logger"
	"invoicer/internal/order"
	"invoicer/internal/render"
	"invoicer/pkg/models"
)

// ErrDuplicateInvoice is returned when the output for an invoice number
// already exists. Existing outputs are never overwritten.
var ErrDuplicateInvoice = errors.New("invoice output already exists")

// Status is the outcome class of one record.
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning" // assembled, but supplied totals differed
	StatusError   Status = "error"
	StatusSkipped Status = "skipped" // not finished, the run was cancelled
)

// Result represents the result of processing a single input file
type Result struct {
	Filename   string
	Record     string // source order or invoice number, if known
	Invoice    *models.Invoice
	Warnings   []string
	Err        error
	Status     Status
	Index      int // Original order index
	OutputPath string
	PDFPath    string
	Duration   time.Duration
}

// Options holds the directories a Processor works in.
type Options struct {
	OutputDir    string
	ProcessedDir string
	ErrorDir     string

	// DryRun assembles records without writing or moving anything.
	DryRun bool
}

// Processor handles a single input file end to end.
type Processor struct {
	opts      Options
	assembler invoice.Processor
	renderer  render.Renderer
	log       zerolog.Logger
}

// NewProcessor creates a Processor. renderer may be nil to skip PDF output.
func NewProcessor(opts Options, assembler invoice.Processor, renderer render.Renderer) *Processor {
	return &Processor{
		opts:      opts,
		assembler: assembler,
		renderer:  renderer,
		log:       logger.WithComponent("batch-processor"),
	}
}

// EnsureDirs creates the output, processed and error directories.
func (p *Processor) EnsureDirs() error {
	if p.opts.DryRun {
		return nil
	}
	for _, dir := range []string{p.opts.OutputDir, p.opts.ProcessedDir, p.opts.ErrorDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ProcessFile transforms the record stored at path.
func (p *Processor) ProcessFile(ctx context.Context, path string) Result {
	start := time.Now()
	result := Result{
		Filename: filepath.Base(path),
		Status:   StatusError,
	}
	log := logger.WithFile(p.log, result.Filename)

	if err := ctx.Err(); err != nil {
		result.Err = err
		result.Status = StatusSkipped
		return result
	}

	err := p.process(ctx, path, &result)
	result.Duration = time.Since(start)
	if err == nil {
		log.Debug().
			Str("record", result.Record).
			Str("status", string(result.Status)).
			Str("output", result.OutputPath).
			Msg("Record processed")
		return result
	}

	result.Err = err
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		result.Status = StatusSkipped
		if !p.opts.DryRun {
			p.discardOutputs(&result)
		}
		log.Warn().Err(err).Str("record", result.Record).Msg("Record interrupted, input left in place")
		return result
	}

	result.Status = StatusError
	var procErr *invoice.InvoiceProcessingError
	if errors.As(err, &procErr) && result.Record == "" {
		result.Record = procErr.Record
	}

	log.Error().Err(err).Str("record", result.Record).Msg("Record failed")

	if !p.opts.DryRun {
		p.discardOutputs(&result)
		if qerr := p.quarantine(path, err); qerr != nil {
			log.Error().Err(qerr).Msg("Failed to move record to error directory")
			result.Err = errors.Join(err, qerr)
		}
	}
	return result
}

func (p *Processor) process(ctx context.Context, path string, result *Result) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", result.Filename, err)
	}

	if err := order.Check(raw); err != nil {
		return err
	}

	outcome, err := p.assembler.Process(raw)
	if err != nil {
		return err
	}

	result.Invoice = outcome.Invoice
	result.Record = outcome.Record.Number
	result.Warnings = outcome.Warnings
	result.Status = StatusSuccess
	if len(outcome.Warnings) > 0 {
		result.Status = StatusWarning
	}

	if p.opts.DryRun {
		return nil
	}

	data, err := models.Encode(outcome.Invoice)
	if err != nil {
		return err
	}

	base := OutputName(outcome.Invoice.InvoiceNumber)
	jsonPath := filepath.Join(p.opts.OutputDir, base+".json")
	if err := writeFileExclusive(jsonPath, data); err != nil {
		return err
	}
	result.OutputPath = jsonPath

	if p.renderer != nil {
		pdf, err := p.renderer.Render(ctx, outcome.Invoice)
		if err != nil {
			return err
		}
		pdfPath := filepath.Join(p.opts.OutputDir, base+".pdf")
		if err := writeFileExclusive(pdfPath, pdf); err != nil {
			return err
		}
		result.PDFPath = pdfPath
	}

	return moveFile(path, filepath.Join(p.opts.ProcessedDir, result.Filename))
}

// quarantine moves a failed input to the error directory together with a
// text file describing the failure.
func (p *Processor) quarantine(path string, cause error) error {
	name := filepath.Base(path)
	if err := moveFile(path, filepath.Join(p.opts.ErrorDir, name)); err != nil {
		return err
	}

	reason := fmt.Sprintf("file: %s\ntime: %s\nerror: %v\n", name, time.Now().UTC().Format(time.RFC3339), cause)
	return writeFileAtomic(filepath.Join(p.opts.ErrorDir, name+".error.txt"), []byte(reason))
}

// discardOutputs removes the files this record created before it failed.
func (p *Processor) discardOutputs(result *Result) {
	for _, path := range []string{result.OutputPath, result.PDFPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			p.log.Warn().Err(err).Str("path", path).Msg("Failed to remove partial output")
		}
	}
	result.OutputPath, result.PDFPath = "", ""
}

// OutputName turns an invoice number into a safe file base name.
func OutputName(invoiceNumber string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(invoiceNumber))
	if name == "" || name == "." || name == ".." {
		return "invoice"
	}
	return name
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := writeTemp(path, data)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// writeTemp writes data to a synced temporary file next to path and returns
// its name.
func writeTemp(path string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return tmp.Name(), nil
}

// writeFileExclusive writes data like writeFileAtomic but hard-links the
// temporary file into place, so an existing path is never replaced.
func writeFileExclusive(path string, data []byte) error {
	tmp, err := writeTemp(path, data)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if err := os.Link(tmp, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrDuplicateInvoice, filepath.Base(path))
		}
		return fmt.Errorf("link %s: %w", path, err)
	}
	return nil
}

// moveFile renames src to dst, copying across filesystems when needed.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("move %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}
	in.Close()
	return os.Remove(src)
}
