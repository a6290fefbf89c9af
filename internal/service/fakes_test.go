package service

import (
	"context"
	"sort"
	"time"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/apperror"
	"ai-chat-be/internal/repository/contract"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/pkg/events"
	"ai-chat-be/pkg/llm"

	"github.com/google/uuid"
)

// memStore is the shared backing state for the fake repositories. It
// mirrors the relational semantics the tests care about: unique user
// credentials, the message sequence, and the activity guard.
type memStore struct {
	users    map[uuid.UUID]*entity.User
	tokens   map[uuid.UUID]*entity.UserRefreshToken
	chats    map[uuid.UUID]*entity.Chat
	messages map[uuid.UUID]*entity.Message
	nextSeq  int64
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[uuid.UUID]*entity.User),
		tokens:   make(map[uuid.UUID]*entity.UserRefreshToken),
		chats:    make(map[uuid.UUID]*entity.Chat),
		messages: make(map[uuid.UUID]*entity.Message),
	}
}

type fakeFactory struct {
	store *memStore
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{store: newMemStore()}
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

type fakeUow struct {
	store *memStore
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) UserRepository() contract.UserRepository {
	return &fakeUserRepo{store: u.store}
}

func (u *fakeUow) ChatRepository() contract.ChatRepository {
	return &fakeChatRepo{store: u.store}
}

func (u *fakeUow) MessageRepository() contract.MessageRepository {
	return &fakeMessageRepo{store: u.store}
}

// --- user repository ---

type fakeUserRepo struct {
	store *memStore
}

func userMatches(user *entity.User, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if user.Id != s.ID {
				return false
			}
		case specification.ByUsername:
			if user.Username != s.Username {
				return false
			}
		case specification.ByEmail:
			if user.Email != s.Email {
				return false
			}
		}
	}
	return true
}

func (r *fakeUserRepo) checkUnique(user *entity.User) error {
	for _, other := range r.store.users {
		if other.Id == user.Id {
			continue
		}
		if other.Username == user.Username {
			return apperror.Conflict("username already exists")
		}
		if other.Email == user.Email {
			return apperror.Conflict("email already exists")
		}
	}
	return nil
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	if err := r.checkUnique(user); err != nil {
		return err
	}
	cp := *user
	r.store.users[user.Id] = &cp
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	if err := r.checkUnique(user); err != nil {
		return err
	}
	cp := *user
	r.store.users[user.Id] = &cp
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.store.users, id)
	return nil
}

func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	for _, user := range r.store.users {
		if userMatches(user, specs) {
			cp := *user
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	var out []*entity.User
	for _, user := range r.store.users {
		if userMatches(user, specs) {
			cp := *user
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return paginate(out, specs), nil
}

func (r *fakeUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var n int64
	for _, user := range r.store.users {
		if userMatches(user, specs) {
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) CreateRefreshToken(ctx context.Context, token *entity.UserRefreshToken) error {
	cp := *token
	r.store.tokens[token.Id] = &cp
	return nil
}

func (r *fakeUserRepo) FindRefreshToken(ctx context.Context, specs ...specification.Specification) (*entity.UserRefreshToken, error) {
	for _, token := range r.store.tokens {
		matches := true
		for _, spec := range specs {
			switch s := spec.(type) {
			case specification.ByID:
				if token.Id != s.ID {
					matches = false
				}
			case specification.ByTokenHash:
				if token.TokenHash != s.TokenHash {
					matches = false
				}
			}
		}
		if matches {
			cp := *token
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) RevokeRefreshToken(ctx context.Context, id uuid.UUID) error {
	if token, ok := r.store.tokens[id]; ok {
		token.Revoked = true
	}
	return nil
}

func (r *fakeUserRepo) DeleteRefreshTokensByUserId(ctx context.Context, userId uuid.UUID) error {
	for id, token := range r.store.tokens {
		if token.UserId == userId {
			delete(r.store.tokens, id)
		}
	}
	return nil
}

// --- chat repository ---

type fakeChatRepo struct {
	store *memStore
}

func chatMatches(chat *entity.Chat, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if chat.Id != s.ID {
				return false
			}
		case specification.ChatOwnedBy:
			if chat.UserId != s.UserID {
				return false
			}
		}
	}
	return true
}

func (r *fakeChatRepo) Create(ctx context.Context, chat *entity.Chat) error {
	cp := *chat
	r.store.chats[chat.Id] = &cp
	return nil
}

func (r *fakeChatRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.store.chats, id)
	return nil
}

func (r *fakeChatRepo) DeleteAllByUserId(ctx context.Context, userId uuid.UUID) error {
	for id, chat := range r.store.chats {
		if chat.UserId == userId {
			delete(r.store.chats, id)
		}
	}
	return nil
}

func (r *fakeChatRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chat, error) {
	for _, chat := range r.store.chats {
		if chatMatches(chat, specs) {
			cp := *chat
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeChatRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chat, error) {
	var out []*entity.Chat
	for _, chat := range r.store.chats {
		if chatMatches(chat, specs) {
			cp := *chat
			out = append(out, &cp)
		}
	}
	// Activity ordering: newest last_message_at first, NULLs after all
	// messaged chats, created_at breaking ties.
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.LastMessageAt != nil && b.LastMessageAt != nil:
			if !a.LastMessageAt.Equal(*b.LastMessageAt) {
				return a.LastMessageAt.After(*b.LastMessageAt)
			}
		case a.LastMessageAt != nil:
			return true
		case b.LastMessageAt != nil:
			return false
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return paginate(out, specs), nil
}

func (r *fakeChatRepo) FindIdsByUserId(ctx context.Context, userId uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, chat := range r.store.chats {
		if chat.UserId == userId {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *fakeChatRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var n int64
	for _, chat := range r.store.chats {
		if chatMatches(chat, specs) {
			n++
		}
	}
	return n, nil
}

func (r *fakeChatRepo) AdvanceLastMessageAt(ctx context.Context, chatId uuid.UUID, ts time.Time) error {
	chat, ok := r.store.chats[chatId]
	if !ok {
		return nil
	}
	if chat.LastMessageAt == nil || !chat.LastMessageAt.After(ts) {
		cp := ts
		chat.LastMessageAt = &cp
	}
	return nil
}

// --- message repository ---

type fakeMessageRepo struct {
	store *memStore
}

func messageMatches(msg *entity.Message, specs []specification.Specification) bool {
	for _, spec := range specs {
		if s, ok := spec.(specification.ByChatID); ok && msg.ChatId != s.ChatID {
			return false
		}
	}
	return true
}

func (r *fakeMessageRepo) Create(ctx context.Context, msg *entity.Message) error {
	r.store.nextSeq++
	cp := *msg
	cp.Seq = r.store.nextSeq
	msg.Seq = cp.Seq
	r.store.messages[msg.Id] = &cp
	return nil
}

func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	var out []*entity.Message
	for _, msg := range r.store.messages {
		if messageMatches(msg, specs) {
			cp := *msg
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.Seq < b.Seq
	})
	return paginate(out, specs), nil
}

func (r *fakeMessageRepo) DeleteAllByChatId(ctx context.Context, chatId uuid.UUID) error {
	for id, msg := range r.store.messages {
		if msg.ChatId == chatId {
			delete(r.store.messages, id)
		}
	}
	return nil
}

func (r *fakeMessageRepo) DeleteAllByChatIds(ctx context.Context, chatIds []uuid.UUID) error {
	for _, chatId := range chatIds {
		if err := r.DeleteAllByChatId(ctx, chatId); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var n int64
	for _, msg := range r.store.messages {
		if messageMatches(msg, specs) {
			n++
		}
	}
	return n, nil
}

// paginate applies a Pagination spec, if present, to an already sorted
// slice.
func paginate[T any](items []T, specs []specification.Specification) []T {
	for _, spec := range specs {
		if p, ok := spec.(specification.Pagination); ok {
			if p.Offset >= len(items) {
				return nil
			}
			items = items[p.Offset:]
			if p.Limit > 0 && p.Limit < len(items) {
				items = items[:p.Limit]
			}
		}
	}
	return items
}

// --- llm and logger fakes ---

type fakeLLM struct {
	reply string
	err   error
	calls [][]llm.Message
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.calls = append(f.calls, history)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

// fakePublisher records every published event in order.
type fakePublisher struct {
	published []events.Event
}

func (f *fakePublisher) Publish(ctx context.Context, event events.Event) error {
	f.published = append(f.published, event)
	return nil
}

func (f *fakePublisher) eventTypes() []string {
	types := make([]string, 0, len(f.published))
	for _, e := range f.published {
		types = append(types, e.EventType())
	}
	return types
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }
