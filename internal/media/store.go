// Package media stores uploaded images: validated, re-encoded to webp,
// content-addressed by sha256 and recorded in the database.
package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mingle/internal/models"
	"mingle/internal/observability"
)

// maxDimension is the longest allowed edge after processing; larger uploads
// are downscaled.
const maxDimension = 2048

// Asset identifies a stored media object.
type Asset struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// Store is the media storage contract: upload raw bytes into a folder and get
// back an identifier plus a serving URL; destroy by identifier. Destroying an
// unknown identifier is a no-op so cascade retries stay safe.
type Store interface {
	Upload(ctx context.Context, content []byte, folder string) (*Asset, error)
	Destroy(ctx context.Context, publicID string) error
}

// LocalStore keeps processed images on local disk with metadata in the
// database.
type LocalStore struct {
	db       *gorm.DB
	dir      string
	maxBytes int
}

// NewLocalStore creates the storage directory and returns a LocalStore.
func NewLocalStore(db *gorm.DB, dir string, maxBytes int) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating media dir: %w", err)
	}
	return &LocalStore{db: db, dir: dir, maxBytes: maxBytes}, nil
}

func (s *LocalStore) Upload(ctx context.Context, content []byte, folder string) (*Asset, error) {
	asset, err := s.upload(ctx, content, folder)
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	observability.MediaOperations.WithLabelValues("upload", outcome).Inc()
	return asset, err
}

func (s *LocalStore) upload(ctx context.Context, content []byte, folder string) (*Asset, error) {
	if len(content) == 0 {
		return nil, models.NewValidationError("Image file is empty")
	}
	if s.maxBytes > 0 && len(content) > s.maxBytes {
		return nil, models.NewValidationError("Image file is too large")
	}
	if folder == "" {
		return nil, models.NewValidationError("Media folder is required")
	}

	img, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError("Unsupported or corrupt image file")
	}
	img = downscale(img)

	var encoded bytes.Buffer
	if err := webp.Encode(&encoded, img, &webp.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("encoding webp: %w", err)
	}

	sum := sha256.Sum256(encoded.Bytes())
	publicID := hex.EncodeToString(sum[:])

	// The same content uploaded again, from any folder, reuses the existing
	// asset. Each upload counts as one reference.
	var existing models.Image
	err = s.db.WithContext(ctx).Where("public_id = ?", publicID).First(&existing).Error
	if err == nil {
		if err := s.db.WithContext(ctx).Model(&existing).
			UpdateColumn("ref_count", gorm.Expr("ref_count + 1")).Error; err != nil {
			return nil, fmt.Errorf("counting media reference: %w", err)
		}
		return &Asset{
			PublicID: publicID,
			URL:      "/media/" + existing.Folder + "/" + publicID + ".webp",
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("looking up media record: %w", err)
	}

	path := filepath.Join(s.dir, folder, publicID+".webp")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating folder: %w", err)
	}

	// Write to a temp name, then rename, so a crash never leaves a partial
	// file under the final name.
	tmp := path + "." + uuid.New().String()[:8] + ".tmp"
	if err := os.WriteFile(tmp, encoded.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("writing media file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("placing media file: %w", err)
	}

	bounds := img.Bounds()
	record := models.Image{
		PublicID: publicID,
		Folder:   folder,
		Format:   "webp",
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Bytes:    int64(encoded.Len()),
		Path:     path,
		RefCount: 1,
	}
	// A concurrent first upload of the same content lands on the unique
	// public_id index; count it as another reference.
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "public_id"}},
			DoUpdates: clause.Assignments(map[string]any{"ref_count": gorm.Expr("ref_count + 1")}),
		}).
		Create(&record).Error
	if err != nil {
		return nil, fmt.Errorf("recording media metadata: %w", err)
	}

	return &Asset{
		PublicID: publicID,
		URL:      "/media/" + folder + "/" + publicID + ".webp",
	}, nil
}

func (s *LocalStore) Destroy(ctx context.Context, publicID string) error {
	err := s.destroy(ctx, publicID)
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	observability.MediaOperations.WithLabelValues("destroy", outcome).Inc()
	return err
}

func (s *LocalStore) destroy(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}

	var record models.Image
	err := s.db.WithContext(ctx).Where("public_id = ?", publicID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking up media record: %w", err)
	}

	// Shared content stays on disk until its last reference is destroyed.
	if record.RefCount > 1 {
		if err := s.db.WithContext(ctx).Model(&record).
			UpdateColumn("ref_count", gorm.Expr("ref_count - 1")).Error; err != nil {
			return fmt.Errorf("dropping media reference: %w", err)
		}
		return nil
	}

	if err := os.Remove(record.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing media file: %w", err)
	}
	if err := s.db.WithContext(ctx).Delete(&record).Error; err != nil {
		return fmt.Errorf("removing media record: %w", err)
	}
	return nil
}

// downscale caps the longest edge at maxDimension, preserving aspect ratio.
func downscale(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDimension && h <= maxDimension {
		return img
	}

	scale := float64(maxDimension) / float64(max(w, h))
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}
