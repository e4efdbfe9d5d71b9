package app

import (
	"context"
	"errors"
	"testing"
)

func TestTelegramSenderUnbound(t *testing.T) {
	var s TelegramSender
	if err := s.SendPhoto(context.Background(), "-100", "file", "caption"); !errors.Is(err, ErrBotNotReady) {
		t.Fatalf("err = %v, want ErrBotNotReady", err)
	}
}

func TestTelegramSenderCancelled(t *testing.T) {
	var s TelegramSender
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.SendPhoto(ctx, "-100", "file", "caption"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
