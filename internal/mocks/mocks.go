package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-client/internal/models"
	"chat-client/internal/state"
	"chat-client/internal/store"
	"chat-client/internal/ws"
)

type HandlerMock struct {
	mock.Mock
}

func (m *HandlerMock) HandleOnlineSnapshot(friendIDs []int) {
	m.Called(friendIDs)
}

func (m *HandlerMock) HandleMessageNew(event ws.MessageNewPayload) {
	m.Called(event)
}

func (m *HandlerMock) HandleFriendRequest(event ws.FriendRequestPayload) {
	m.Called(event)
}

func (m *HandlerMock) HandleFriendAccepted(event ws.FriendAcceptedPayload) {
	m.Called(event)
}

func (m *HandlerMock) HandleFriendRejected() {
	m.Called()
}

func (m *HandlerMock) HandleFriendRemoved(event ws.FriendRemovedPayload) {
	m.Called(event)
}

func (m *HandlerMock) HandleFriendPresence(friendID int, online bool) {
	m.Called(friendID, online)
}

func (m *HandlerMock) HandleChatInvite(event ws.ChatInvitePayload) {
	m.Called(event)
}

func (m *HandlerMock) HandleChatInviteResult(event ws.ChatInviteResultPayload) {
	m.Called(event)
}

type ChatListerMock struct {
	mock.Mock
}

func (m *ChatListerMock) ChatList(ctx context.Context) ([]models.Chat, error) {
	args := m.Called(ctx)
	var chats []models.Chat
	if val := args.Get(0); val != nil {
		chats = val.([]models.Chat)
	}
	return chats, args.Error(1)
}

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	var value []byte
	if val := args.Get(0); val != nil {
		value = val.([]byte)
	}
	return value, args.Bool(1), args.Error(2)
}

func (m *StoreMock) Set(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *StoreMock) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type RefresherMock struct {
	mock.Mock
}

func (m *RefresherMock) Refresh(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

var _ ws.Handler = (*HandlerMock)(nil)
var _ ws.Refresher = (*RefresherMock)(nil)
var _ state.ChatLister = (*ChatListerMock)(nil)
var _ store.Store = (*StoreMock)(nil)
