package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
	"github.com/capachica/turismo-api/internal/pkg/metrics"
)

const (
	// MaxPhotoBytes is the largest accepted upload.
	MaxPhotoBytes = 5 << 20

	maxPhotoDimension = 500
	photoJPEGQuality  = 80
)

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var (
	ErrPhotoFormat = domain.BadRequest("Image format not allowed. Use JPG, PNG or WebP")
	ErrPhotoSize   = domain.BadRequest("File exceeds the maximum allowed size (5MB)")
	ErrPhotoEmpty  = domain.BadRequest("No file uploaded")
)

// PhotoService validates, resizes and stores profile photos.
type PhotoService struct {
	store   ports.PhotoStore
	baseURL string
	log     zerolog.Logger
	now     func() time.Time
}

func NewPhotoService(store ports.PhotoStore, publicBaseURL string, log zerolog.Logger) *PhotoService {
	return &PhotoService{
		store:   store,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		log:     log,
		now:     time.Now,
	}
}

// Store replaces the photo of accountID and returns its cache-busted public URL.
func (p *PhotoService) Store(ctx context.Context, accountID string, up ports.PhotoUpload) (string, error) {
	contentType := normalizeContentType(up.ContentType)
	if _, ok := photoExtensions[contentType]; !ok {
		return "", ErrPhotoFormat
	}
	if len(up.Data) == 0 {
		return "", ErrPhotoEmpty
	}
	if len(up.Data) > MaxPhotoBytes {
		return "", ErrPhotoSize
	}

	start := time.Now()
	data, err := resizeToJPEG(up.Data)
	if err != nil {
		metrics.PhotoProcessingDuration.WithLabelValues("original").Observe(time.Since(start).Seconds())
		p.log.Warn().Err(err).Str("account_id", accountID).Msg("photo processing failed, storing original")
		data = up.Data
	} else {
		metrics.PhotoProcessingDuration.WithLabelValues("resized").Observe(time.Since(start).Seconds())
		contentType = "image/jpeg"
	}

	if err := p.store.DeletePrefix(ctx, accountID+"/"); err != nil {
		p.log.Warn().Err(err).Str("account_id", accountID).Msg("failed to remove previous photos")
	}

	key := accountID + "/profile" + photoExtensions[contentType]
	if err := p.store.Put(ctx, key, contentType, data); err != nil {
		return "", fmt.Errorf("store photo: %w", err)
	}
	return fmt.Sprintf("%s/media/profile-photos/%s?t=%d", p.baseURL, key, p.now().Unix()), nil
}

// Remove deletes every stored photo of accountID.
func (p *PhotoService) Remove(ctx context.Context, accountID string) error {
	if err := p.store.DeletePrefix(ctx, accountID+"/"); err != nil {
		return fmt.Errorf("remove photo: %w", err)
	}
	return nil
}

func (p *PhotoService) Open(ctx context.Context, key string) (*ports.StoredPhoto, error) {
	return p.store.Open(ctx, key)
}

func normalizeContentType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// resizeToJPEG fits the image inside maxPhotoDimension without enlarging it
// and re-encodes it as JPEG on a white background.
func resizeToJPEG(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	b := src.Bounds()
	w, h := fitWithin(b.Dx(), b.Dy(), maxPhotoDimension)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: photoJPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}

func fitWithin(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		nh := h * limit / w
		if nh < 1 {
			nh = 1
		}
		return limit, nh
	}
	nw := w * limit / h
	if nw < 1 {
		nw = 1
	}
	return nw, limit
}
