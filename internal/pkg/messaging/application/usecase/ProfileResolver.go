package usecase

import (
	"context"
	"fmt"

	messaging "github.com/Abedmejri/Artplat/internal/pkg/messaging/domain"
	repository "github.com/Abedmejri/Artplat/internal/pkg/messaging/persistence/repository/port"
)

// ProfileResolver is the shared profile-resolution helper used by both the
// directory load (batch) and the live stream (point lookups). Every call is
// a fresh backend round trip; there is deliberately no cache between the
// profiles table and the rendered identity.
type ProfileResolver struct {
	Repo repository.DirectoryRepository
}

func NewProfileResolver(repo repository.DirectoryRepository) *ProfileResolver {
	return &ProfileResolver{Repo: repo}
}

// Resolve batch-fetches profiles and returns them keyed by user id. Ids
// whose profile no longer exists are absent from the map; callers render
// placeholder identity for those.
func (r *ProfileResolver) Resolve(ctx context.Context, userIDs []string) (map[string]*messaging.Profile, error) {
	out := make(map[string]*messaging.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	profiles, err := r.Repo.GetProfiles(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	for i := range profiles {
		out[profiles[i].ID] = &profiles[i]
	}
	return out, nil
}

// ResolveOne point-fetches a single profile. A missing profile resolves to
// nil without an error.
func (r *ProfileResolver) ResolveOne(ctx context.Context, userID string) (*messaging.Profile, error) {
	profile, err := r.Repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return profile, nil
}
