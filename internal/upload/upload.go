// Package upload validates user images and stores them on the image CDN.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const (
	MaxFileSize   = 5 * 1024 * 1024
	MaxFilesCount = 20
)

// CDN folders
const (
	FolderEvents  = "events"
	FolderWinners = "winners"
	FolderGallery = "gallery"
	FolderMembers = "members"
	FolderRoles   = "recruitment"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds the 5MB limit")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooManyFiles    = errors.New("too many files")
	ErrNotConfigured   = errors.New("image uploads are not configured")
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// Uploader stores images and returns their public URL
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, folder string) (string, error)
	UploadDataURI(ctx context.Context, uri, folder string) (string, error)
}

// ValidateImage checks size and extension of a multipart image
func ValidateImage(fh *multipart.FileHeader) error {
	if fh.Size > MaxFileSize {
		return fmt.Errorf("%s: %w", fh.Filename, ErrFileTooLarge)
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%s: %w", fh.Filename, ErrUnsupportedType)
	}
	return nil
}

// IsDataURI reports whether s is an inline base64 image
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:image/")
}

// UploadFiles validates and uploads every file, in order
func UploadFiles(ctx context.Context, u Uploader, files []*multipart.FileHeader, folder string) ([]string, error) {
	if len(files) > MaxFilesCount {
		return nil, fmt.Errorf("%w: at most %d", ErrTooManyFiles, MaxFilesCount)
	}
	for _, fh := range files {
		if err := ValidateImage(fh); err != nil {
			return nil, err
		}
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		url, err := uploadOne(ctx, u, fh, folder)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func uploadOne(ctx context.Context, u Uploader, fh *multipart.FileHeader, folder string) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return u.Upload(ctx, f, folder)
}

// Cloudinary uploads to a Cloudinary account
type Cloudinary struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinary creates a Cloudinary uploader from account credentials
func NewCloudinary(cloudName, apiKey, apiSecret string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	return &Cloudinary{cld: cld}, nil
}

func (c *Cloudinary) Upload(ctx context.Context, r io.Reader, folder string) (string, error) {
	return c.upload(ctx, r, folder)
}

func (c *Cloudinary) UploadDataURI(ctx context.Context, uri, folder string) (string, error) {
	if !IsDataURI(uri) {
		return "", ErrUnsupportedType
	}
	return c.upload(ctx, uri, folder)
}

func (c *Cloudinary) upload(ctx context.Context, file interface{}, folder string) (string, error) {
	res, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}

// Disabled rejects every upload. Used when no CDN credentials are set.
type Disabled struct{}

func (Disabled) Upload(context.Context, io.Reader, string) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) UploadDataURI(context.Context, string, string) (string, error) {
	return "", ErrNotConfigured
}
