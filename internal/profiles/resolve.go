package profiles

import (
	"context"
	stderrors "errors"

	"funding-match-workers/internal/common/errors"
	"funding-match-workers/internal/models"
)

// Resolve picks the profile a job scores against. An inline profile wins over a lookup by
// businessID. With neither, Resolve returns a nil profile and no error: scoring a missing
// profile yields the zero result rather than failing the job.
func Resolve(ctx context.Context, source Source, businessID string, inline *models.BusinessProfile) (*models.BusinessProfile, error) {
	if inline != nil {
		if inline.ID == "" && businessID != "" {
			withID := *inline
			withID.ID = businessID
			return &withID, nil
		}
		return inline, nil
	}
	if businessID == "" {
		return nil, nil
	}
	if source == nil {
		return nil, errors.NewInvalidInputError("businessProfile is required when no profile source is configured")
	}

	profile, err := source.Get(ctx, businessID)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, errors.NewProfileNotFoundError(businessID).WithMetadata("businessId", businessID)
		}
		return nil, errors.NewProfileLookupFailedError(businessID, err)
	}
	return profile, nil
}
