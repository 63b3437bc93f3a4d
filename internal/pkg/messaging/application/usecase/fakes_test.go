package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	feedport "github.com/Abedmejri/Artplat/internal/infrastructure/feed/port"
	messaging "github.com/Abedmejri/Artplat/internal/pkg/messaging/domain"
	repository "github.com/Abedmejri/Artplat/internal/pkg/messaging/persistence/repository/port"
)

// fakeRepo is an in-memory DirectoryRepository for use case tests.
type fakeRepo struct {
	mu sync.Mutex

	profiles      map[string]messaging.Profile
	participants  []messaging.Participant
	messages      []messaging.Message
	nextConvID    int64
	nextMsgID     int64
	conversations map[string]int64 // ordered pair key -> conversation id

	failWith error // when set, every method returns this error

	// laggedConversations are hidden from ListParticipations only,
	// simulating a list query snapshot behind a just-created conversation.
	laggedConversations map[int64]bool

	listMessagesCalls int
	saveMessageCalls  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		profiles:            make(map[string]messaging.Profile),
		conversations:       make(map[string]int64),
		laggedConversations: make(map[int64]bool),
		nextConvID:          1,
		nextMsgID:           1,
	}
}

var _ repository.DirectoryRepository = (*fakeRepo)(nil)

func (f *fakeRepo) addProfile(id, username string) {
	f.profiles[id] = messaging.Profile{ID: id, Username: &username}
}

func (f *fakeRepo) addConversation(id int64, userIDs ...string) {
	for _, uid := range userIDs {
		f.participants = append(f.participants, messaging.Participant{ConversationID: id, UserID: uid})
	}
	if id >= f.nextConvID {
		f.nextConvID = id + 1
	}
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

func (f *fakeRepo) ListParticipations(ctx context.Context, userID string) ([]int64, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var ids []int64
	for _, p := range f.participants {
		if p.UserID == userID && !f.laggedConversations[p.ConversationID] {
			ids = append(ids, p.ConversationID)
		}
	}
	return ids, nil
}

func (f *fakeRepo) ListOtherParticipants(ctx context.Context, conversationIDs []int64, excludingUserID string) ([]messaging.Participant, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	wanted := make(map[int64]bool, len(conversationIDs))
	for _, id := range conversationIDs {
		wanted[id] = true
	}
	var out []messaging.Participant
	for _, p := range f.participants {
		if wanted[p.ConversationID] && p.UserID != excludingUserID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) OtherParticipant(ctx context.Context, conversationID int64, excludingUserID string) (string, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	for _, p := range f.participants {
		if p.ConversationID == conversationID && p.UserID != excludingUserID {
			return p.UserID, nil
		}
	}
	return "", repository.ErrNotFound
}

func (f *fakeRepo) GetProfiles(ctx context.Context, userIDs []string) ([]messaging.Profile, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []messaging.Profile
	for _, id := range userIDs {
		if p, ok := f.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetProfile(ctx context.Context, userID string) (*messaging.Profile, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	if p, ok := f.profiles[userID]; ok {
		return &p, nil
	}
	return nil, nil
}

func (f *fakeRepo) GetOrCreateConversation(ctx context.Context, userA, userB string) (int64, bool, error) {
	if f.failWith != nil {
		return 0, false, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := pairKey(userA, userB)
	if id, ok := f.conversations[key]; ok {
		return id, false, nil
	}
	id := f.nextConvID
	f.nextConvID++
	f.conversations[key] = id
	f.participants = append(f.participants,
		messaging.Participant{ConversationID: id, UserID: userA},
		messaging.Participant{ConversationID: id, UserID: userB},
	)
	return id, true, nil
}

func (f *fakeRepo) ListMessages(ctx context.Context, conversationID int64) ([]messaging.Message, error) {
	f.mu.Lock()
	f.listMessagesCalls++
	f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []messaging.Message
	for _, m := range f.messages {
		if conversationID == 0 || m.ConversationID == conversationID {
			if p, ok := f.profiles[m.SenderID]; ok {
				p := p
				m.Sender = &p
			}
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRepo) SaveMessage(ctx context.Context, m messaging.Message) (messaging.Message, error) {
	if f.failWith != nil {
		return messaging.Message{}, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveMessageCalls++
	m.ID = f.nextMsgID
	f.nextMsgID++
	f.messages = append(f.messages, m)
	return m, nil
}

func (f *fakeRepo) IsParticipant(ctx context.Context, conversationID int64, userID string) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	for _, p := range f.participants {
		if p.ConversationID == conversationID && p.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) SuggestProfiles(ctx context.Context, limit int, excludingUserID string) ([]messaging.Profile, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	ids := make([]string, 0, len(f.profiles))
	for id := range f.profiles {
		if id != excludingUserID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]messaging.Profile, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.profiles[id])
	}
	return out, nil
}

// fakeFeed records published inserts.
type fakeFeed struct {
	mu        sync.Mutex
	published []publishedInsert
	failWith  error
}

type publishedInsert struct {
	table string
	row   json.RawMessage
}

var _ feedport.Feed = (*fakeFeed)(nil)

func (f *fakeFeed) SubscribeInserts(ctx context.Context, table string, filter *feedport.Filter) (feedport.Subscription, error) {
	return nil, fmt.Errorf("fakeFeed: subscribe not supported")
}

func (f *fakeFeed) PublishInsert(ctx context.Context, table string, row any) error {
	if f.failWith != nil {
		return f.failWith
	}
	payload, err := json.Marshal(row)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, publishedInsert{table: table, row: payload})
	return nil
}

func (f *fakeFeed) Close() error { return nil }

func (f *fakeFeed) publishedTo(table string) []json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []json.RawMessage
	for _, p := range f.published {
		if p.table == table {
			out = append(out, p.row)
		}
	}
	return out
}
