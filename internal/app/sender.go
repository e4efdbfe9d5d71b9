package app

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/m3rciful/postbot/internal/post"

	tele "gopkg.in/telebot.v4"
)

// ErrBotNotReady is returned by TelegramSender before the bot is bound.
var ErrBotNotReady = errors.New("telegram sender: bot not bound")

// TelegramSender posts photos through a telebot bot. The bot is bound once it
// has been created by the run loop.
type TelegramSender struct {
	bot atomic.Pointer[tele.Bot]
}

// Bind sets the bot used for sends.
func (s *TelegramSender) Bind(b *tele.Bot) {
	s.bot.Store(b)
}

// SendPhoto implements fanout.PhotoSender. The image is referenced by its Telegram file ID
// and the caption is sent with Markdown parse mode.
func (s *TelegramSender) SendPhoto(ctx context.Context, to post.Destination, image post.ImageRef, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b := s.bot.Load()
	if b == nil {
		return ErrBotNotReady
	}
	photo := &tele.Photo{File: tele.File{FileID: string(image)}, Caption: caption}
	_, err := b.Send(to, photo, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
	return err
}
