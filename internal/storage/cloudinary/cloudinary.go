// Package cloudinary stores delivered photos in Cloudinary, one folder per
// transaction.
package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/MrJamesThe3rd/photobox/internal/apperror"
	"github.com/MrJamesThe3rd/photobox/internal/storage"
)

// maxAssets is the most photos listed for one transaction.
const maxAssets = 500

type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
	// APIURL overrides the API host, for tests.
	APIURL string
}

type Storage struct {
	cld        *cloudinary.Cloudinary
	cloudName  string
	base       string
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

func New(cfg Config) (*Storage, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("configuring cloudinary: %w", err)
	}

	cld.Config.URL.Secure = true

	if cfg.APIURL != "" {
		cld.Config.API.UploadPrefix = cfg.APIURL
	}

	base := strings.Trim(cfg.Folder, "/")
	if base == "" {
		base = "photobox"
	}

	return &Storage{
		cld:        cld,
		cloudName:  cfg.CloudName,
		base:       base,
		maxRetries: 3,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxElapsedTime = time.Minute

			return b
		},
	}, nil
}

// Folder is the storage folder of one transaction.
func (s *Storage) Folder(externalID string) string {
	return path.Join(s.base, externalID)
}

func (s *Storage) FolderURL(externalID string) string {
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/%s", s.cloudName, s.Folder(externalID))
}

// Upload stores files as photo_1..photo_n. Existing photos are never
// overwritten.
func (s *Storage) Upload(ctx context.Context, externalID string, files []storage.File) ([]storage.Asset, error) {
	folder := s.Folder(externalID)
	assets := make([]storage.Asset, 0, len(files))

	for i, f := range files {
		res, err := s.cld.Upload.Upload(ctx, f.Content, uploader.UploadParams{
			Folder:       folder,
			PublicID:     fmt.Sprintf("photo_%d", i+1),
			Overwrite:    api.Bool(false),
			ResourceType: "image",
		})
		if err == nil && res.Error.Message != "" {
			err = errors.New(res.Error.Message)
		}

		if err != nil {
			slog.Error("failed to upload photo", "folder", folder, "filename", f.Name, "error", err)
			return assets, apperror.Upstream("failed to upload photo "+f.Name, err)
		}

		assets = append(assets, storage.Asset{
			PublicID:     res.PublicID,
			URL:          res.SecureURL,
			ThumbnailURL: storage.Thumbnail(res.SecureURL),
		})
	}

	slog.Info("photos uploaded", "folder", folder, "count", len(assets))

	return assets, nil
}

func (s *Storage) List(ctx context.Context, externalID string) ([]storage.Asset, error) {
	folder := s.Folder(externalID)

	res, err := s.cld.Admin.Assets(ctx, admin.AssetsParams{
		AssetType:    api.Image,
		DeliveryType: string(api.Upload),
		Prefix:       folder + "/",
		MaxResults:   maxAssets,
	})
	if err == nil && res.Error.Message != "" {
		err = errors.New(res.Error.Message)
	}

	if err != nil {
		return nil, apperror.Upstream("failed to list photos", err)
	}

	assets := make([]storage.Asset, 0, len(res.Assets))
	for _, a := range res.Assets {
		assets = append(assets, storage.Asset{
			PublicID:     a.PublicID,
			URL:          a.SecureURL,
			ThumbnailURL: storage.Thumbnail(a.SecureURL),
		})
	}

	return assets, nil
}

// DeleteFolder removes every photo of the transaction and then the folder
// itself, retrying transient failures. A folder that is already gone counts
// as deleted.
func (s *Storage) DeleteFolder(ctx context.Context, externalID string) error {
	folder := s.Folder(externalID)

	op := func() error {
		res, err := s.cld.Admin.DeleteAssetsByPrefix(ctx, admin.DeleteAssetsByPrefixParams{
			AssetType:    api.Image,
			DeliveryType: api.Upload,
			Prefix:       api.CldAPIArray{folder + "/"},
		})
		if err == nil && res.Error.Message != "" {
			err = errors.New(res.Error.Message)
		}

		if err != nil {
			return fmt.Errorf("deleting photos: %w", err)
		}

		slog.Info("deleted photos", "folder", folder, "count", len(res.Deleted))

		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.maxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return apperror.Upstream("failed to delete folder "+folder, err)
	}

	res, err := s.cld.Admin.DeleteFolder(ctx, admin.DeleteFolderParams{Folder: folder})
	if err == nil && res.Error.Message != "" {
		err = errors.New(res.Error.Message)
	}

	// Best effort once the photos are gone.
	if err != nil {
		slog.Warn("could not delete folder", "folder", folder, "error", err)
	}

	return nil
}
