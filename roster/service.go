package roster

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sage3280/tracker/audit"
	"github.com/sage3280/tracker/config"
	"github.com/sage3280/tracker/errors"
)

type ServiceParams struct {
	fx.In

	Uploads Repository
	Audit   audit.Recorder
	Config  *config.Config
	Logger  *zap.SugaredLogger
}

// Service accepts roster files. It stores the content on disk under a
// generated name and enqueues a pending upload for the worker.
type Service struct {
	uploads   Repository
	audit     audit.Recorder
	uploadDir string
	logger    *zap.SugaredLogger
}

func NewService(p ServiceParams) (*Service, error) {
	return &Service{
		uploads:   p.Uploads,
		audit:     p.Audit,
		uploadDir: p.Config.Roster.UploadDir,
		logger:    p.Logger,
	}, nil
}

func (s *Service) CreateUpload(ctx context.Context, originalFilename string, content io.Reader, uploadedBy *string) (*Upload, error) {
	extension := strings.ToLower(filepath.Ext(originalFilename))
	if extension != ".xlsx" && extension != ".csv" {
		return nil, ErrUnsupportedFormat
	}

	filename := uuid.NewString() + extension
	path := filepath.Join(s.uploadDir, filename)

	size, err := s.store(path, content)
	if err != nil {
		return nil, err
	}

	upload, err := s.uploads.Create(ctx, &Upload{
		Filename:         filename,
		OriginalFilename: originalFilename,
		StoragePath:      path,
		FileSize:         size,
		Status:           UploadStatusPending,
		UploadedBy:       uploadedBy,
	})
	if err != nil {
		// Don't leave orphaned files behind when the record can't be
		// created.
		if removeErr := os.Remove(path); removeErr != nil {
			s.logger.Warnw("error removing stored roster file", "path", path, "error", removeErr)
		}
		return nil, err
	}

	if err := s.audit.Record(ctx, audit.UploadCreated(upload.Id.Hex(), originalFilename, uploadedBy)); err != nil {
		s.logger.Warnw("error recording audit entry", "upload", upload.Id.Hex(), "error", err)
	}

	s.logger.Infow("accepted roster upload", "upload", upload.Id.Hex(), "filename", originalFilename, "size", size)
	return upload, nil
}

func (s *Service) store(path string, content io.Reader) (int64, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return 0, fmt.Errorf("error creating upload directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("error storing roster file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, content)
	if err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("error storing roster file: %w", err)
	}
	if size == 0 {
		_ = os.Remove(path)
		return 0, fmt.Errorf("%w: the file is empty", errors.BadRequest)
	}

	return size, nil
}
