package usecase

import (
	"context"
	"errors"
	"fmt"

	messaging "github.com/Abedmejri/Artplat/internal/pkg/messaging/domain"
	repository "github.com/Abedmejri/Artplat/internal/pkg/messaging/persistence/repository/port"
)

// suggestionLimit bounds the discovery list shown to users without any
// conversations yet.
const suggestionLimit = 5

// LoadDirectoryInput identifies whose directory to load and, optionally,
// which conversation the UI is currently addressing. URLConversationID 0
// means no conversation is addressed.
type LoadDirectoryInput struct {
	CurrentUserID     string
	URLConversationID int64
}

// LoadDirectoryUseCase assembles the signed-in user's conversation list with
// resolved counterpart profiles. When the addressed conversation is missing
// from the list query's snapshot (read-after-write lag on a just-created
// conversation), it is fetched independently and prepended, so the UI never
// shows an open conversation that the list claims does not exist.
type LoadDirectoryUseCase struct {
	Repo     repository.DirectoryRepository
	Profiles *ProfileResolver
}

func NewLoadDirectoryUseCase(repo repository.DirectoryRepository) *LoadDirectoryUseCase {
	return &LoadDirectoryUseCase{Repo: repo, Profiles: NewProfileResolver(repo)}
}

// Execute loads the directory. Entries keep the backend's order for the
// load; no recency re-sort is applied. Suggestions are returned only when
// the user has no conversations at all.
func (uc *LoadDirectoryUseCase) Execute(ctx context.Context, in LoadDirectoryInput) (*messaging.Directory, error) {
	if in.CurrentUserID == "" {
		return nil, fmt.Errorf("current user id is required")
	}

	conversationIDs, err := uc.Repo.ListParticipations(ctx, in.CurrentUserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	dir := &messaging.Directory{}

	if len(conversationIDs) == 0 {
		suggestions, err := uc.Repo.SuggestProfiles(ctx, suggestionLimit, in.CurrentUserID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		dir.Suggestions = suggestions
	} else {
		entries, err := uc.loadEntries(ctx, conversationIDs, in.CurrentUserID)
		if err != nil {
			return nil, err
		}
		dir.Entries = entries
	}

	// Reconciliation failures are deliberately non-fatal: an addressed
	// conversation the user cannot actually access simply is not injected,
	// and the directory already loaded is still returned.
	dir.Entries = reconcile(ctx, dir.Entries, in.URLConversationID, func(ctx context.Context, conversationID int64) (*messaging.ConversationListEntry, error) {
		return uc.fetchMissingEntry(ctx, conversationID, in.CurrentUserID)
	})

	// Entries and Suggestions stay mutually exclusive: when reconciliation
	// surfaces a conversation the list query missed, the user is no longer
	// conversation-less and the discovery list does not apply.
	if len(dir.Entries) > 0 {
		dir.Suggestions = nil
	}

	return dir, nil
}

// loadEntries resolves each conversation to its counterpart's membership row
// and profile, preserving the order the membership query returned.
func (uc *LoadDirectoryUseCase) loadEntries(ctx context.Context, conversationIDs []int64, currentUserID string) ([]messaging.ConversationListEntry, error) {
	others, err := uc.Repo.ListOtherParticipants(ctx, conversationIDs, currentUserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	userIDs := make([]string, 0, len(others))
	for _, p := range others {
		userIDs = append(userIDs, p.UserID)
	}
	profiles, err := uc.Profiles.Resolve(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]messaging.ConversationListEntry, 0, len(others))
	for _, p := range others {
		entries = append(entries, messaging.ConversationListEntry{
			ConversationID:   p.ConversationID,
			OtherParticipant: profiles[p.UserID], // nil when the profile is gone
		})
	}
	return entries, nil
}

// fetchMissingEntry independently resolves the addressed conversation for
// reconciliation. A conversation the user is not genuinely part of yields
// (nil, nil): nothing to inject. A resolvable membership whose profile is
// missing still yields an entry, with a nil profile.
func (uc *LoadDirectoryUseCase) fetchMissingEntry(ctx context.Context, conversationID int64, currentUserID string) (*messaging.ConversationListEntry, error) {
	otherID, err := uc.Repo.OtherParticipant(ctx, conversationID, currentUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	member, err := uc.Repo.IsParticipant(ctx, conversationID, currentUserID)
	if err != nil || !member {
		return nil, err
	}

	profile, err := uc.Profiles.ResolveOne(ctx, otherID)
	if err != nil {
		profile = nil // degrade to placeholder identity, keep the entry
	}
	return &messaging.ConversationListEntry{ConversationID: conversationID, OtherParticipant: profile}, nil
}

// fetchEntryFunc is the injected lookup reconcile uses for a conversation
// missing from the loaded snapshot.
type fetchEntryFunc func(ctx context.Context, conversationID int64) (*messaging.ConversationListEntry, error)

// reconcile patches a loaded conversation list so it includes targetID. If
// the target is absent it is fetched and prepended; if the fetch fails or
// resolves to nothing (the user is not a participant), the list is returned
// unchanged. Pure apart from the injected fetch.
func reconcile(ctx context.Context, entries []messaging.ConversationListEntry, targetID int64, fetch fetchEntryFunc) []messaging.ConversationListEntry {
	if targetID == 0 {
		return entries
	}
	for _, e := range entries {
		if e.ConversationID == targetID {
			return entries
		}
	}

	entry, err := fetch(ctx, targetID)
	if err != nil || entry == nil {
		return entries
	}
	return append([]messaging.ConversationListEntry{*entry}, entries...)
}
