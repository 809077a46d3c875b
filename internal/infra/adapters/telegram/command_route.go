package telegram

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-ai-relay/internal/usecase"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// commandRoutes defines all available bot commands and their handlers.
func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":   r.handleStartCommand,
		"help":    r.handleHelpCommand,
		"gpt":     r.relayWith(""),
		"gemini":  r.relayWith("gemini-2.0-flash"),
		"privacy": r.handlePrivacyCommand,
		"clear":   r.handleClearCommand,
		"models":  r.handleModelsCommand,
	}
}

// relayCommands are the commands a document caption may address.
var relayCommands = map[string]struct{}{"gpt": {}, "gemini": {}}

// documentCommand resolves the command for a message carrying a document.
// A caption starting with a relay command selects it; any other caption (or
// none) defaults to /gpt. Captions addressing non-relay commands resolve to
// nothing and the document is ignored.
func documentCommand(message *tgbotapi.Message) string {
	cmd, _ := captionCommand(message.Caption)
	if cmd == "" {
		return "gpt"
	}
	if _, ok := relayCommands[cmd]; !ok {
		return ""
	}
	return cmd
}

// captionCommand splits a document caption into a leading bot command and
// the remaining prompt text. Captions without a leading slash are all prompt.
func captionCommand(caption string) (command, args string) {
	caption = strings.TrimSpace(caption)
	if !strings.HasPrefix(caption, "/") {
		return "", caption
	}
	rest := caption[1:]
	command = rest
	if i := strings.IndexAny(rest, " \t\n"); i >= 0 {
		command, args = rest[:i], strings.TrimSpace(rest[i+1:])
	}
	if i := strings.Index(command, "@"); i >= 0 {
		command = command[:i]
	}
	return command, args
}

// promptText extracts the user's prompt: command arguments for a plain text
// command, the caption remainder for a document.
func promptText(message *tgbotapi.Message) string {
	if message.Document != nil && !message.IsCommand() {
		_, args := captionCommand(message.Caption)
		return args
	}
	return message.CommandArguments()
}

// relayWith builds a relay handler bound to a model. An empty model lets the
// backend router pick the default provider's model.
func (r *RealTelegramBotAdapter) relayWith(model string) commandHandler {
	return func(ctx context.Context, message *tgbotapi.Message) error {
		fileText, note, err := r.extractAttachment(ctx, message)
		if err != nil {
			return r.SendMessage(ctx, message.Chat.ID, "File processing failed: "+err.Error())
		}
		if note != "" {
			if err := r.SendMessage(ctx, message.Chat.ID, note); err != nil {
				return err
			}
		}

		reply, err := r.facade.HandleRelay(ctx, usecase.RelayRequest{
			UserID:    strconv.FormatInt(message.From.ID, 10),
			ChannelID: strconv.FormatInt(message.Chat.ID, 10),
			Model:     model,
			Text:      promptText(message),
			FileText:  fileText,
		})
		if err != nil {
			return err
		}
		return r.SendMessage(ctx, message.Chat.ID, reply)
	}
}

func (r *RealTelegramBotAdapter) handlePrivacyCommand(ctx context.Context, message *tgbotapi.Message) error {
	args := strings.Fields(message.CommandArguments())
	text, err := r.facade.HandlePrivacy(ctx, strconv.FormatInt(message.From.ID, 10), args)
	if err != nil {
		return err
	}
	return r.SendMessage(ctx, message.Chat.ID, text)
}

func (r *RealTelegramBotAdapter) handleClearCommand(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleClear(ctx, strconv.FormatInt(message.From.ID, 10))
	if err != nil {
		return err
	}
	return r.SendMessage(ctx, message.Chat.ID, text)
}

func (r *RealTelegramBotAdapter) handleModelsCommand(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleModels(ctx)
	if err != nil {
		return err
	}
	return r.SendMessage(ctx, message.Chat.ID, text)
}

func (r *RealTelegramBotAdapter) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.SendMessage(ctx, message.Chat.ID,
		"Hi! I relay your messages to an AI model with recent channel context attached.\n\n"+
			"Use /gpt <message> or /gemini <message> to chat, and /privacy to control how your context is handled.")
}

func (r *RealTelegramBotAdapter) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) error {
	help := `AI relay commands:

/gpt <message> - chat via OpenAI with channel context
/gemini <message> - chat via Gemini with channel context
/models - list available models

Attach a plain-text file to /gpt or /gemini to have it analyzed.

Memory and privacy:
/privacy - show and change your privacy settings
/clear - clear your cached context`
	return r.SendMessage(ctx, message.Chat.ID, help)
}
