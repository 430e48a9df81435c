package roster

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sage3280/tracker/audit"
	"github.com/sage3280/tracker/config"
	"github.com/sage3280/tracker/patients/deriver"
)

type ProcessorParams struct {
	fx.In

	Uploads Repository
	Deriver deriver.Deriver
	Parser  *Parser
	Audit   audit.Recorder
	Config  *config.Config
	Logger  *zap.SugaredLogger
}

// Processor runs one claimed upload end to end: parse the file, upsert
// every row through the deriver, and write the outcome back to the upload
// record.
type Processor struct {
	uploads      Repository
	deriver      deriver.Deriver
	parser       *Parser
	audit        audit.Recorder
	maxRowErrors int
	logger       *zap.SugaredLogger
}

func NewProcessor(p ProcessorParams) (*Processor, error) {
	return &Processor{
		uploads:      p.Uploads,
		deriver:      p.Deriver,
		parser:       p.Parser,
		audit:        p.Audit,
		maxRowErrors: p.Config.Roster.MaxRowErrors,
		logger:       p.Logger,
	}, nil
}

// Process never returns parse or row errors. Those are recorded on the
// upload itself so the worker keeps draining the queue; only failures to
// persist the outcome propagate.
func (p *Processor) Process(ctx context.Context, upload *Upload) error {
	parsed, err := p.parser.ParseFile(upload.StoragePath)
	if err != nil {
		return p.fail(ctx, upload, err.Error())
	}

	clusters, err := FindDuplicateClusters(parsed.Rows)
	if err != nil {
		return p.fail(ctx, upload, err.Error())
	}

	result := UploadResult{
		TotalRows:         parsed.Total,
		DuplicateClusters: clusters,
	}

	for _, row := range parsed.Rows {
		result.ProcessedRows++

		row.Patient.LastUploadId = upload.Id
		_, created, err := p.deriver.Upsert(ctx, row.Patient)
		if err != nil {
			result.FailedRows++
			if len(result.RowErrors) < p.maxRowErrors {
				result.RowErrors = append(result.RowErrors, RowError{Row: row.Number, Message: err.Error()})
			}
			p.logger.Warnw("error processing roster row",
				"upload", upload.Id.Hex(),
				"row", row.Number,
				"error", err,
			)
			continue
		}

		if created {
			result.CreatedRows++
		} else {
			result.UpdatedRows++
		}
	}

	completed, err := p.uploads.Complete(ctx, upload.Id.Hex(), result)
	if err != nil {
		return err
	}

	p.record(ctx, audit.UploadProcessed(completed.Id.Hex(), result.CreatedRows, result.UpdatedRows, result.FailedRows))
	p.logger.Infow("processed roster upload",
		"upload", completed.Id.Hex(),
		"total", result.TotalRows,
		"created", result.CreatedRows,
		"updated", result.UpdatedRows,
		"failed", result.FailedRows,
		"duplicateClusters", len(clusters),
	)
	return nil
}

func (p *Processor) fail(ctx context.Context, upload *Upload, message string) error {
	if _, err := p.uploads.Fail(ctx, upload.Id.Hex(), message); err != nil {
		return err
	}

	p.record(ctx, audit.UploadFailed(upload.Id.Hex(), message))
	p.logger.Warnw("roster upload failed", "upload", upload.Id.Hex(), "reason", message)
	return nil
}

func (p *Processor) record(ctx context.Context, entry audit.Entry) {
	if err := p.audit.Record(ctx, entry); err != nil {
		p.logger.Warnw("error recording audit entry", "action", entry.Action, "error", err)
	}
}
