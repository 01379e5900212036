package ports

import (
	"context"

	"github.com/ngt-labs/coughdx/internal/domain"
)

// Uploader submits a clip to the diagnosis endpoint.
type Uploader interface {
	// Upload performs exactly one attempt. A non-nil error means the reply
	// could not be obtained or decoded; a decoded body is always returned
	// with a nil error, whatever its success flag says.
	Upload(ctx context.Context, blob domain.Blob) (domain.UploadResponse, error)
}
