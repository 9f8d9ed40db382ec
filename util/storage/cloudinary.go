package storage

import (
	"context"

	"github.com/bwise1/civic_circle/config"
	"github.com/bwise1/civic_circle/internal/logger"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/pkg/errors"
)

const ReportImageFolder = "civic-circle/reports"

type Cloudinary struct {
	CLD *cloudinary.Cloudinary
}

// NewCloudinary returns nil when credentials are missing; report images are
// then kept inline.
func NewCloudinary(cfg *config.Config) *Cloudinary {
	if !cfg.CloudinaryConfigured() {
		logger.Log.Info("cloudinary not configured, report images stay inline")
		return nil
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		logger.Log.WithError(err).Error("failed to initialize cloudinary")
		return nil
	}

	return &Cloudinary{CLD: cld}
}

// UploadImage accepts a local path, a remote URL or a data URI.
func (c *Cloudinary) UploadImage(ctx context.Context, file string, folder string) (string, error) {
	resp, err := c.CLD.Upload.Upload(ctx, file, uploader.UploadParams{Folder: folder})
	if err != nil {
		return "", errors.Wrap(err, "cloudinary upload")
	}
	if resp.Error.Message != "" {
		return "", errors.New(resp.Error.Message)
	}
	return resp.SecureURL, nil
}
