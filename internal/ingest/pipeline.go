package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"photobooth/agent/internal/media"
	"photobooth/agent/internal/models"
	"photobooth/agent/internal/repository"
)

// Pipeline turns a discovered file into a MediaAsset row: classify, attach
// to the active session, copy into managed storage, derive a preview for
// photos, hash, persist. Each file is independent; a failure is logged and
// the file skipped without affecting later arrivals.
type Pipeline struct {
	sessions   *repository.SessionRepository
	assets     *repository.MediaRepository
	boothID    string
	mediaDir   string
	previewDir string
	log        zerolog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewPipeline(
	sessions *repository.SessionRepository,
	assets *repository.MediaRepository,
	boothID, mediaDir, previewDir string,
	log zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		sessions:   sessions,
		assets:     assets,
		boothID:    boothID,
		mediaDir:   mediaDir,
		previewDir: previewDir,
		log:        log,
		inFlight:   make(map[string]struct{}),
	}
}

// ProcessFile ingests a single file path. Concurrent calls for distinct
// paths run independently; a second call for a path still being ingested
// is dropped.
func (p *Pipeline) ProcessFile(ctx context.Context, filePath string) (models.MediaAsset, error) {
	if !p.acquire(filePath) {
		return models.MediaAsset{}, fmt.Errorf("ingestion already in flight for %s", filePath)
	}
	defer p.release(filePath)

	kind, ok := media.DetectKind(filePath)
	if !ok {
		p.log.Debug().Str("file", filePath).Msg("skipping non-media file")
		return models.MediaAsset{}, errSkipped
	}

	session, err := p.sessions.EnsureActive(ctx, p.boothID)
	if err != nil {
		return models.MediaAsset{}, fmt.Errorf("ensure active session: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	base := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	stamp := time.Now().UnixMilli()

	mediaPath := filepath.Join(p.mediaDir, fmt.Sprintf("%s-%d%s", base, stamp, ext))
	if err := copyFile(filePath, mediaPath); err != nil {
		return models.MediaAsset{}, fmt.Errorf("copy into media storage: %w", err)
	}

	var previewPath *string
	if kind == models.MediaKindPhoto {
		preview := filepath.Join(p.previewDir, fmt.Sprintf("%s-%d.preview.jpg", base, stamp))
		if err := media.GeneratePreview(mediaPath, preview); err != nil {
			return models.MediaAsset{}, fmt.Errorf("generate preview: %w", err)
		}
		previewPath = &preview
	}

	hash, err := media.FileSHA1(mediaPath)
	if err != nil {
		return models.MediaAsset{}, fmt.Errorf("hash media file: %w", err)
	}

	asset, err := p.assets.Create(ctx, models.MediaAsset{
		SessionID:   session.ID,
		Kind:        kind,
		LocalPath:   mediaPath,
		PreviewPath: previewPath,
		CapturedAt:  time.Now().UTC(),
		Hash:        hash,
	})
	if err != nil {
		return models.MediaAsset{}, fmt.Errorf("persist media asset: %w", err)
	}

	p.log.Info().
		Str("asset_id", asset.ID).
		Str("session_id", session.ID).
		Str("path", mediaPath).
		Str("kind", string(kind)).
		Msg("ingested media asset")
	return asset, nil
}

var errSkipped = errors.New("unsupported media file")

// Skipped reports whether a ProcessFile error means the file was ignored
// rather than failed.
func Skipped(err error) bool {
	return errors.Is(err, errSkipped)
}

func (p *Pipeline) acquire(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.inFlight[path]; busy {
		return false
	}
	p.inFlight[path] = struct{}{}
	return true
}

func (p *Pipeline) release(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, path)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
