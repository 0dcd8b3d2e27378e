package service

import (
	"context"
	"fmt"

	"github.com/nidhijagga/quicktalk-be/internal/models"
	"github.com/nidhijagga/quicktalk-be/internal/store"
)

// ChatService 只负责消息持久化与历史查询，实时投递由 ws.Hub 处理。
type ChatService struct {
	messages store.MessageStore
}

func NewChatService(messages store.MessageStore) *ChatService {
	return &ChatService{messages: messages}
}

func (s *ChatService) Send(ctx context.Context, sender, recipient uint, content string) (*models.Message, error) {
	msg := models.Message{Sender: sender, Recipient: recipient, Content: content}
	if err := s.messages.CreateMessage(ctx, &msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return &msg, nil
}

// History 返回两人之间双向的消息，按时间升序；没有消息时返回空切片。
func (s *ChatService) History(ctx context.Context, userA, userB uint) ([]models.Message, error) {
	msgs, err := s.messages.FindMessagesBetween(ctx, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}
