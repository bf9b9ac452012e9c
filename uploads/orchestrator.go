// Package uploads stores local images in the object store and hands back
// asset references.
package uploads

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raushankrgupta/fitly-tryon/apperrors"
	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/storage"
)

// Orchestrator uploads a batch of images concurrently. Either every upload
// succeeds or the batch fails; there is no automatic retry.
type Orchestrator struct {
	store    storage.ObjectStore
	maxBytes int64

	// Now is the clock used for storage paths.
	Now func() time.Time
}

// NewOrchestrator returns an Orchestrator writing to store. maxBytes <= 0
// disables the size limit.
func NewOrchestrator(store storage.ObjectStore, maxBytes int64) *Orchestrator {
	return &Orchestrator{
		store:    store,
		maxBytes: maxBytes,
		Now:      time.Now,
	}
}

// Upload stores payloads under the callerID namespace and returns one
// reference per payload, in order. Failures are KindUploadFailed carrying the
// 1-based index of the failed payload.
func (o *Orchestrator) Upload(ctx context.Context, callerID string, payloads []models.UploadPayload) ([]models.AssetReference, error) {
	if callerID == "" {
		return nil, apperrors.New(apperrors.KindUnauthenticated, "caller id is required")
	}
	if len(payloads) == 0 {
		return nil, apperrors.New(apperrors.KindBadRequest, "at least one image is required")
	}

	ts := o.Now()
	refs := make([]models.AssetReference, len(payloads))
	g, gctx := errgroup.WithContext(ctx)

	for i, p := range payloads {
		index := 0
		if len(payloads) > 1 {
			index = i + 1
		}
		g.Go(func() error {
			ref, err := o.uploadOne(gctx, callerID, ts, index, p)
			if err != nil {
				return &apperrors.Error{
					Kind:    apperrors.KindUploadFailed,
					Message: fmt.Sprintf("Failed to upload image %d", i+1),
					Index:   i + 1,
					Cause:   err,
				}
			}
			refs[i] = ref
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return refs, nil
}

func (o *Orchestrator) uploadOne(ctx context.Context, callerID string, ts time.Time, index int, p models.UploadPayload) (models.AssetReference, error) {
	if len(p.Data) == 0 {
		return models.AssetReference{}, fmt.Errorf("image data cannot be empty")
	}
	if o.maxBytes > 0 && int64(len(p.Data)) > o.maxBytes {
		return models.AssetReference{}, fmt.Errorf("image exceeds %d bytes", o.maxBytes)
	}

	ext, contentType := sniff(p.Filename, p.ContentType, p.Data)
	path := OriginalPath(callerID, ts, index, ext)
	if err := storage.ValidateKey(path); err != nil {
		return models.AssetReference{}, err
	}

	if err := o.store.Put(ctx, path, p.Data, contentType); err != nil {
		return models.AssetReference{}, err
	}
	url, err := o.store.URL(ctx, path)
	if err != nil {
		return models.AssetReference{}, fmt.Errorf("public url for %s: %w", path, err)
	}
	return models.AssetReference{StoragePath: path, PublicURL: url}, nil
}
