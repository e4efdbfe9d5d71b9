package app

import (
	"fmt"

	"github.com/m3rciful/postbot/core/telegram/format"
	"github.com/m3rciful/postbot/core/telegram/keyboard"
	"github.com/m3rciful/postbot/internal/conversation"
	"github.com/m3rciful/postbot/internal/post"

	tele "gopkg.in/telebot.v4"
)

// Callback uniques.
const (
	cbGetStarted = "get_started"
	cbCategory   = "category"
)

const (
	welcomeText = "*Welcome to the Movie Bot! Please click the button below to get started.*"

	instructionsText = "*To use the bot, please follow the steps below:*\n\n" +
		"• *Title*: Movie Title Extraction File\n" +
		"• *Link*: <single link for all resolutions>\n" +
		"• *Permanent*: <permanent link>\n\n" +
		"*Once you've sent the text, upload the movie poster image manually.*"

	linkFormatHint = "*Link*: <URL for download>\n" +
		"*Permanent*: <Permanent URL>"

	formatHint = "*Please ensure you're using the correct format.*"
)

var replyTexts = map[conversation.ReplyKind]string{
	conversation.ReplyTitleNotFound:   "*Sorry, I couldn't find the title in the caption. Please make sure it's included in the caption text.*",
	conversation.ReplyTitleRequired:   "*Please provide the movie title first by sending the movie caption.*",
	conversation.ReplyLinkFormat:      "*Please ensure you send the correct format:*\n\n" + linkFormatHint,
	conversation.ReplyLinksReceived:   "*Links received! Now, please upload the movie poster image.*",
	conversation.ReplyDetailsRequired: "*Please provide the movie details first (title, link, and permanent link).*",
	conversation.ReplyChooseCategory:  "*Image received! Please specify the category.*",
	conversation.ReplyStepsIncomplete: "*Please complete the previous steps first.*",
	conversation.ReplyForwarded:       "*Post successfully forwarded to the relevant channels!*",
}

// replyText renders the message for r. Markup is set when the reply carries a keyboard.
func replyText(r conversation.Reply) (string, *tele.ReplyMarkup) {
	switch r.Kind {
	case conversation.ReplyTitleExtracted:
		title, err := format.EscapeMarkdown(r.Title, format.MarkdownV1)
		if err != nil {
			title = r.Title
		}
		return fmt.Sprintf("*I have extracted the title:* \n\n*%s*\n\n"+
			"*Now, please send the download link and permanent link in the following format:*\n\n%s",
			title, linkFormatHint), nil
	case conversation.ReplyChooseCategory:
		return replyTexts[r.Kind], categoryKeyboard()
	}
	if text, ok := replyTexts[r.Kind]; ok {
		return text, nil
	}
	return replyTexts[conversation.ReplyStepsIncomplete], nil
}

// errorText is sent when a handler fails unexpectedly.
func errorText(err error) string {
	msg, escErr := format.EscapeMarkdown(err.Error(), format.MarkdownV1)
	if escErr != nil {
		msg = err.Error()
	}
	return fmt.Sprintf("*Error*: %s\n%s", msg, formatHint)
}

func categoryKeyboard() *tele.ReplyMarkup {
	cats := post.Selectable()
	buttons := make([]keyboard.InlineBtn, len(cats))
	for i, c := range cats {
		buttons[i] = keyboard.InlineBtn{Text: c.Label(), Unique: cbCategory, Data: c.Token()}
	}
	return keyboard.InlineButtonsNPerRow(buttons, 2)
}

func startKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{{Text: "Get Started", Unique: cbGetStarted}})
}
