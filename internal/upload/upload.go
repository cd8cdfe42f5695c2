// internal/upload/upload.go
//
// Image upload validation, storage, and downsampling.
//
// Context
// -------
// Admins upload logos through POST /upload.  The file's real content
// type is sniffed from its bytes—the client-declared MIME type is never
// trusted—then checked against a fixed allow-list (JPEG, PNG, GIF,
// WebP) and a 5 MiB ceiling.  Accepted files land under
// `<dir>/<kind>s/` with a freshly generated UUID filename, so repeated
// uploads can never collide or overwrite.
//
// After the file is on disk we downsample it to a 800×800 bounding box
// (aspect ratio preserved, never upscaled) with nfnt/resize.  PNG keeps
// its alpha channel through the stdlib encoder.  WebP is validated
// before the write by decoding its header (golang.org/x/image/webp) but
// stored as uploaded, since Go has no pure-Go WebP encoder.  A
// processing failure after a successful move is non-fatal: the original
// upload is still usable and returned.

package upload

import (
	"bytes"
	"errors"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
	"go.uber.org/zap"
	"golang.org/x/image/webp"
)

// MaxBytes is the per-file size ceiling.
const MaxBytes = 5 << 20 // 5 MiB

// maxDimension is the bounding box edge for downsampling.
const maxDimension = 800

// Validation errors, mapped to 400 by the handler.
var (
	ErrTooLarge = errors.New("upload: file exceeds 5 MiB")
	ErrBadType  = errors.New("upload: only JPEG, PNG, GIF, and WebP images are allowed")
)

// allowed maps sniffed content types to their canonical extension.
var allowed = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Result describes a stored upload.
type Result struct {
	Filename    string `json:"filename"`
	Path        string `json:"path"` // relative URL path, e.g. /uploads/logos/<name>
	ContentType string `json:"type"`
	Size        int    `json:"size"`
}

// Saver stores uploads under a base directory.
type Saver struct {
	baseDir string
}

// New returns a Saver rooted at baseDir.
func New(baseDir string) *Saver {
	return &Saver{baseDir: baseDir}
}

// kindDir maps the logical upload type onto its subdirectory.
func kindDir(kind string) string {
	if kind == "logo" {
		return "logos"
	}
	return "temp"
}

// Save validates and stores one uploaded file of the given logical kind
// ("logo" by default).  The reader is consumed fully.
func (s *Saver) Save(file io.Reader, kind string) (*Result, error) {
	// Bound the read; one extra byte distinguishes "exactly at the
	// ceiling" from "over it".
	data, err := io.ReadAll(io.LimitReader(file, MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxBytes {
		return nil, ErrTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowed[contentType]
	if !ok {
		return nil, ErrBadType
	}

	// Sniffing WebP only checks the RIFF container magic; the chunk
	// payload could still be anything.  Downsampling never touches WebP,
	// so decode the header here to reject corrupt files up front.
	if contentType == "image/webp" {
		if _, err := webp.DecodeConfig(bytes.NewReader(data)); err != nil {
			return nil, ErrBadType
		}
	}

	dir := filepath.Join(s.baseDir, kindDir(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	filename := uuid.NewString() + ext
	fullPath := filepath.Join(dir, filename)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return nil, err
	}

	if err := downsample(fullPath, data, contentType); err != nil {
		// Keep the original; the upload already succeeded.
		zap.S().Warnw("image processing failed", "file", filename, "err", err)
	}

	return &Result{
		Filename:    filename,
		Path:        path.Join("/uploads", kindDir(kind), filename),
		ContentType: contentType,
		Size:        len(data),
	}, nil
}

// Remove deletes a previously stored upload by its relative URL path.
// Best effort: callers log failures and move on.
func (s *Saver) Remove(relPath string) error {
	rel, ok := trimUploadsPrefix(relPath)
	if !ok {
		return errors.New("upload: path outside uploads tree")
	}
	full := filepath.Join(s.baseDir, filepath.FromSlash(rel))
	return os.Remove(full)
}

// trimUploadsPrefix strips the public /uploads/ prefix and refuses
// traversal attempts.
func trimUploadsPrefix(p string) (string, bool) {
	clean := path.Clean("/" + p)
	const prefix = "/uploads/"
	if len(clean) <= len(prefix) || clean[:len(prefix)] != prefix {
		return "", false
	}
	return clean[len(prefix):], true
}

// downsample rewrites the stored file within the bounding box.  WebP is
// left untouched (no encoder); GIF keeps only its first frame, matching
// the upstream behaviour.
func downsample(fullPath string, data []byte, contentType string) error {
	if contentType == "image/webp" {
		return nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}

	bounds := img.Bounds()
	if bounds.Dx() <= maxDimension && bounds.Dy() <= maxDimension {
		return nil
	}

	small := resize.Thumbnail(maxDimension, maxDimension, img, resize.Lanczos3)

	out, err := os.Create(fullPath)
	if err != nil {
		return err
	}
	defer out.Close()

	switch contentType {
	case "image/jpeg":
		return jpeg.Encode(out, small, &jpeg.Options{Quality: 85})
	case "image/png":
		return png.Encode(out, small)
	case "image/gif":
		return gif.Encode(out, small, nil)
	}
	return nil
}
