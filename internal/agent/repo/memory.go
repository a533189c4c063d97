package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/aeg-helpline/server/internal/agent/model"
)

// MemoryConversationRepository keeps transcripts in process. Entries expire
// ttl after their last write; a zero ttl keeps them forever.
type MemoryConversationRepository struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]*memoryTranscript
}

type memoryTranscript struct {
	messages  []*schema.Message
	expiresAt time.Time
}

func NewMemoryConversationRepository(ttl time.Duration) *MemoryConversationRepository {
	return &MemoryConversationRepository{ttl: ttl, now: time.Now, items: map[string]*memoryTranscript{}}
}

func (r *MemoryConversationRepository) live(conversationID string) *memoryTranscript {
	t, ok := r.items[conversationID]
	if !ok {
		return nil
	}
	if !t.expiresAt.IsZero() && !r.now().Before(t.expiresAt) {
		delete(r.items, conversationID)
		return nil
	}
	return t
}

func (r *MemoryConversationRepository) AddMessage(_ context.Context, conversationID string, message *schema.Message) error {
	if message == nil {
		return fmt.Errorf("message is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.live(conversationID)
	if t == nil {
		t = &memoryTranscript{}
		r.items[conversationID] = t
	}
	cp := *message
	t.messages = append(t.messages, &cp)
	if r.ttl > 0 {
		t.expiresAt = r.now().Add(r.ttl)
	}
	return nil
}

func (r *MemoryConversationRepository) LoadHistory(_ context.Context, conversationID string) (*model.ConversationHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := []*schema.Message{}
	if t := r.live(conversationID); t != nil {
		for _, m := range t.messages {
			cp := *m
			msgs = append(msgs, &cp)
		}
	}
	return &model.ConversationHistory{ConversationID: conversationID, Messages: msgs}, nil
}

func (r *MemoryConversationRepository) ClearHistory(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, conversationID)
	return nil
}

func (r *MemoryConversationRepository) GetMessageCount(_ context.Context, conversationID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.live(conversationID); t != nil {
		return len(t.messages), nil
	}
	return 0, nil
}

// MemoryDialogStateRepository keeps dialog states in process as JSON, so
// callers never share instances with the stored copy.
type MemoryDialogStateRepository struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	states map[string]memoryState
}

type memoryState struct {
	raw       []byte
	expiresAt time.Time
}

func NewMemoryDialogStateRepository(ttl time.Duration) *MemoryDialogStateRepository {
	return &MemoryDialogStateRepository{ttl: ttl, now: time.Now, states: map[string]memoryState{}}
}

func (r *MemoryDialogStateRepository) Load(_ context.Context, conversationID string) (*model.DialogState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.states[conversationID]
	if ok && !s.expiresAt.IsZero() && !r.now().Before(s.expiresAt) {
		delete(r.states, conversationID)
		ok = false
	}
	if !ok {
		return &model.DialogState{ConversationID: conversationID}, nil
	}
	var state model.DialogState
	if err := json.Unmarshal(s.raw, &state); err != nil {
		return nil, fmt.Errorf("unmarshal dialog state: %w", err)
	}
	return &state, nil
}

func (r *MemoryDialogStateRepository) Save(_ context.Context, conversationID string, state *model.DialogState) error {
	if state == nil {
		return fmt.Errorf("dialog state is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	state.ConversationID = conversationID
	state.UpdatedAt = r.now().UTC()
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal dialog state: %w", err)
	}
	s := memoryState{raw: b}
	if r.ttl > 0 {
		s.expiresAt = r.now().Add(r.ttl)
	}
	r.states[conversationID] = s
	return nil
}

func (r *MemoryDialogStateRepository) Delete(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, conversationID)
	return nil
}

var (
	_ model.ConversationRepository = (*MemoryConversationRepository)(nil)
	_ model.DialogStateRepository  = (*MemoryDialogStateRepository)(nil)
)
