package authcore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ImageAsset identifies a stored image: a public URL plus the backend's own
// asset ID, kept so the asset can be deleted later.
type ImageAsset struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

// ImageStore is the binary-asset collaborator used for avatars.
type ImageStore interface {
	// Upload stores the image bytes under a caller-supplied name hint.
	Upload(ctx context.Context, r io.Reader, name string) (*ImageAsset, error)

	// Delete removes a previously uploaded asset. Best effort at call
	// sites; an error here never blocks the surrounding workflow.
	Delete(ctx context.Context, assetID string) error
}

// fetchTimeout bounds the download of an external avatar.
const fetchTimeout = 15 * time.Second

// ImportImageFromURL downloads an external image (an OAuth profile photo)
// and re-uploads it into the store so the asset is locally owned.
func ImportImageFromURL(ctx context.Context, store ImageStore, srcURL, name string) (*ImageAsset, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid avatar url: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch avatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch avatar: status %d", resp.StatusCode)
	}
	return store.Upload(ctx, resp.Body, name)
}
