package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sage3280/tracker/errors"
	"github.com/sage3280/tracker/roster"
)

// CreateUpload accepts a multipart roster file and enqueues it for the
// background worker. Processing results show up on the upload record.
func (h *Handler) CreateUpload(ec echo.Context) error {
	ctx := ec.Request().Context()

	fileHeader, err := ec.FormFile("file")
	if err != nil {
		return errors.BadRequest
	}

	file, err := fileHeader.Open()
	if err != nil {
		return errors.BadRequest
	}
	defer file.Close()

	upload, err := h.roster.CreateUpload(ctx, fileHeader.Filename, file, h.currentUsername(ec))
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusAccepted, NewUploadDto(upload))
}

func (h *Handler) ListUploads(ec echo.Context) error {
	ctx := ec.Request().Context()

	filter := &roster.UploadFilter{}
	if value := queryParam(ec, "status"); value != nil {
		status := roster.UploadStatus(*value)
		filter.Status = &status
	}

	list, err := h.uploads.List(ctx, filter, pagination(ec))
	if err != nil {
		return err
	}

	dtos := make([]UploadDto, 0, len(list))
	for _, upload := range list {
		dtos = append(dtos, NewUploadDto(upload))
	}
	return ec.JSON(http.StatusOK, dtos)
}

func (h *Handler) GetUpload(ec echo.Context) error {
	upload, err := h.uploads.Get(ec.Request().Context(), ec.Param("id"))
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, NewUploadDto(upload))
}
