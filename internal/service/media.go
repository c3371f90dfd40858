package service

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/gavril-s/meme-search-bot/internal/logger"
	"github.com/gavril-s/meme-search-bot/internal/storage"
	"github.com/go-resty/resty/v2"
	_ "golang.org/x/image/webp"
)

// FileResolver turns a transport file reference into a downloadable URL.
// The Telegram transport implements it over the Bot API file endpoint.
type FileResolver interface {
	ResolveFileURL(ctx context.Context, fileReference string) (string, error)
}

// ArchivedMedia describes an image copied into object storage.
type ArchivedMedia struct {
	StorageKey string
	Width      int
	Height     int
}

// MediaArchiver downloads matched images and copies them into object storage.
// Objects are keyed by content hash, so the same image archived twice lands
// on the same key.
type MediaArchiver struct {
	resolver FileResolver
	storage  storage.ObjectStorage
	client   *resty.Client
	logger   *logger.Logger
}

// NewMediaArchiver creates a media archiver.
func NewMediaArchiver(resolver FileResolver, objectStorage storage.ObjectStorage, log *logger.Logger) *MediaArchiver {
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second)

	return &MediaArchiver{
		resolver: resolver,
		storage:  objectStorage,
		client:   client,
		logger:   log,
	}
}

// Archive downloads the referenced image and uploads it to object storage,
// returning the storage key and decoded dimensions.
func (a *MediaArchiver) Archive(ctx context.Context, fileReference string) (*ArchivedMedia, error) {
	url, err := a.resolver.ResolveFileURL(ctx, fileReference)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file URL: %w", err)
	}

	resp, err := a.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode())
	}
	data := resp.Body()

	width, height, format := 0, 0, ""
	if cfg, fmtName, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		width, height, format = cfg.Width, cfg.Height, fmtName
	} else {
		a.logger.WithError(err).Warn("Failed to decode image dimensions")
	}
	if format == "" {
		format = "jpeg"
	}

	hash := md5.Sum(data)
	md5Hash := hex.EncodeToString(hash[:])

	// Hash prefix spreads keys across storage buckets
	key := fmt.Sprintf("%s/%s.%s", md5Hash[:2], md5Hash, format)

	exists, err := a.storage.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check storage existence: %w", err)
	}
	if !exists {
		if err := a.storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentTypeFor(format)); err != nil {
			return nil, fmt.Errorf("failed to upload to storage: %w", err)
		}
	}

	return &ArchivedMedia{StorageKey: key, Width: width, Height: height}, nil
}

func contentTypeFor(format string) string {
	switch format {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
