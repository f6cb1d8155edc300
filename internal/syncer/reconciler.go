// Package syncer reconciles the local store with the cloud authority.
// Each run makes a single pass over pending records, attempts each one
// exactly once, and flips it to synced only on a 2xx response.
package syncer

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"photobooth/agent/internal/repository"
)

type Summary struct {
	SessionsSynced int `json:"sessionsSynced"`
	AssetsSynced   int `json:"assetsSynced"`
	FinalsSynced   int `json:"finalsSynced"`
	Failures       int `json:"failures"`
}

// finalPayload is the rendered-output record pushed to /sync/finals.
type finalPayload struct {
	ProjectID   string `json:"projectId"`
	SessionID   string `json:"sessionId"`
	OutputPath  string `json:"outputPath"`
	ShareToken  string `json:"shareToken"`
	ShareURL    string `json:"shareUrl"`
	ImageBase64 string `json:"imageBase64,omitempty"`
}

type Reconciler struct {
	sessions *repository.SessionRepository
	assets   *repository.MediaRepository
	projects *repository.ProjectRepository
	shares   *repository.ShareLinkRepository
	client   *Client
	log      zerolog.Logger

	// Serializes runs: overlapping passes could double-push the same
	// pending record.
	mu sync.Mutex
}

func NewReconciler(
	sessions *repository.SessionRepository,
	assets *repository.MediaRepository,
	projects *repository.ProjectRepository,
	shares *repository.ShareLinkRepository,
	client *Client,
	log zerolog.Logger,
) *Reconciler {
	return &Reconciler{
		sessions: sessions,
		assets:   assets,
		projects: projects,
		shares:   shares,
		client:   client,
		log:      log,
	}
}

// Run pushes every pending record once. Failed pushes stay pending for
// the next run and are tallied; re-running with nothing pending is a
// no-op returning zero counts.
func (r *Reconciler) Run(ctx context.Context) (Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var summary Summary

	sessions, err := r.sessions.ListPending(ctx)
	if err != nil {
		return summary, err
	}
	for _, session := range sessions {
		if err := r.client.Post(ctx, "/sync/sessions", session); err != nil {
			summary.Failures++
			r.log.Warn().Err(err).Str("session_id", session.ID).Msg("session sync failed")
			continue
		}
		if err := r.sessions.MarkSynced(ctx, session.ID); err != nil {
			return summary, err
		}
		summary.SessionsSynced++
	}

	assets, err := r.assets.ListPending(ctx)
	if err != nil {
		return summary, err
	}
	for _, asset := range assets {
		if err := r.client.Post(ctx, "/sync/assets", asset); err != nil {
			summary.Failures++
			r.log.Warn().Err(err).Str("asset_id", asset.ID).Msg("asset sync failed")
			continue
		}
		if err := r.assets.MarkSynced(ctx, asset.ID); err != nil {
			return summary, err
		}
		summary.AssetsSynced++
	}

	projects, err := r.projects.ListPendingRendered(ctx)
	if err != nil {
		return summary, err
	}
	for _, project := range projects {
		share, err := r.shares.LatestByProject(ctx, project.ID)
		if errors.Is(err, repository.ErrShareLinkNotFound) {
			// Finals need a minted share link; the next successful render
			// supplies one.
			continue
		}
		if err != nil {
			return summary, err
		}
		if project.OutputPath == nil {
			continue
		}

		payload := finalPayload{
			ProjectID:  project.ID,
			SessionID:  project.SessionID,
			OutputPath: *project.OutputPath,
			ShareToken: share.PublicToken,
			ShareURL:   share.URL,
		}
		if raw, err := os.ReadFile(*project.OutputPath); err == nil {
			payload.ImageBase64 = base64.StdEncoding.EncodeToString(raw)
		}

		if err := r.client.Post(ctx, "/sync/finals", payload); err != nil {
			summary.Failures++
			r.log.Warn().Err(err).Str("project_id", project.ID).Msg("final output sync failed")
			continue
		}
		if err := r.projects.MarkSynced(ctx, project.ID); err != nil {
			return summary, err
		}
		summary.FinalsSynced++
	}

	return summary, nil
}
