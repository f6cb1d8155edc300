package render

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"photobooth/agent/internal/apperr"
	"photobooth/agent/internal/models"
	"photobooth/agent/internal/repository"
)

// Service orchestrates a project render: load the project graph, enforce
// preconditions, compose, then record the outcome and mint a share link.
// The store is only touched before and after composition, never during.
type Service struct {
	projects  *repository.ProjectRepository
	templates *repository.TemplateRepository
	brands    *repository.BrandRepository
	assets    *repository.MediaRepository
	shares    *repository.ShareLinkRepository
	composer  *Composer
	log       zerolog.Logger
}

func NewService(
	projects *repository.ProjectRepository,
	templates *repository.TemplateRepository,
	brands *repository.BrandRepository,
	assets *repository.MediaRepository,
	shares *repository.ShareLinkRepository,
	composer *Composer,
	log zerolog.Logger,
) *Service {
	return &Service{
		projects:  projects,
		templates: templates,
		brands:    brands,
		assets:    assets,
		shares:    shares,
		composer:  composer,
		log:       log,
	}
}

type Result struct {
	ProjectID  string `json:"projectId"`
	Status     string `json:"status"`
	OutputPath string `json:"outputPath"`
	ShareURL   string `json:"shareUrl"`
}

func (s *Service) RenderProject(ctx context.Context, projectID, brandProfileID, qrTargetURL string) (Result, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return Result{}, apperr.NotFound("PROJECT_NOT_FOUND", fmt.Sprintf("no project found for id %s", projectID))
		}
		return Result{}, err
	}

	template, err := s.templates.GetByID(ctx, project.TemplateID)
	if err != nil {
		if errors.Is(err, repository.ErrTemplateNotFound) {
			return Result{}, apperr.NotFound("TEMPLATE_NOT_FOUND", fmt.Sprintf("no template found for id %s", project.TemplateID))
		}
		return Result{}, err
	}

	brand, err := s.brands.GetByID(ctx, brandProfileID)
	if err != nil {
		if errors.Is(err, repository.ErrBrandProfileNotFound) {
			return Result{}, apperr.NotFound("BRAND_PROFILE_NOT_FOUND", fmt.Sprintf("no brand profile found for id %s", brandProfileID))
		}
		return Result{}, err
	}

	selected, err := s.assets.GetByIDs(ctx, project.SelectedAssetIDs)
	if err != nil {
		return Result{}, err
	}
	photos := make([]models.MediaAsset, 0, len(selected))
	for _, asset := range selected {
		if asset.Kind == models.MediaKindPhoto {
			photos = append(photos, asset)
		}
	}
	if len(photos) == 0 {
		return Result{}, apperr.PreconditionFailed("NO_PHOTO_MEDIA_SELECTED", "project render requires at least one photo asset")
	}

	token, err := newShareToken()
	if err != nil {
		return Result{}, err
	}
	shareURL := strings.TrimRight(qrTargetURL, "/") + "/" + token

	outputPath, renderErr := s.composer.Render(Input{
		Project:     project,
		Template:    template,
		Brand:       brand,
		PhotoAssets: photos,
		QRTargetURL: shareURL,
	})
	if renderErr != nil {
		if err := s.projects.UpdateRender(ctx, project.ID, models.RenderStatusFailed, nil); err != nil {
			s.log.Error().Err(err).Str("project_id", project.ID).Msg("record failed render")
		}
		return Result{}, apperr.RenderFailed("project render failed", renderErr)
	}

	if err := s.projects.UpdateRender(ctx, project.ID, models.RenderStatusRendered, &outputPath); err != nil {
		return Result{}, err
	}
	if _, err := s.shares.Create(ctx, project.ID, token, shareURL, nil); err != nil {
		return Result{}, err
	}

	s.log.Info().
		Str("project_id", project.ID).
		Str("output", outputPath).
		Msg("project rendered")

	return Result{
		ProjectID:  project.ID,
		Status:     string(models.RenderStatusRendered),
		OutputPath: outputPath,
		ShareURL:   shareURL,
	}, nil
}

func newShareToken() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
