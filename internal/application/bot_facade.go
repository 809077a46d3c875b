package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"telegram-ai-relay/internal/domain"
	"telegram-ai-relay/internal/domain/model"
	"telegram-ai-relay/internal/usecase"
)

// BotFacade composes usecases into high-level bot commands.
// Facade methods return strings so the platform adapter just forwards them
// to the chat.
type BotFacade struct {
	RelayUC   usecase.RelayUseCase
	PrivacyUC usecase.PrivacyUseCase
}

func NewBotFacade(relayUC usecase.RelayUseCase, privacyUC usecase.PrivacyUseCase) *BotFacade {
	return &BotFacade{RelayUC: relayUC, PrivacyUC: privacyUC}
}

// HandleRelay forwards one chat message to a model backend and returns the
// reply text, mapping backend failures to user-facing messages.
func (b *BotFacade) HandleRelay(ctx context.Context, req usecase.RelayRequest) (string, error) {
	reply, err := b.RelayUC.Relay(ctx, req)
	switch {
	case err == nil:
		return reply, nil
	case errors.Is(err, domain.ErrInvalidArgument):
		return "Please provide a message after the command, or attach a text file.", nil
	case errors.Is(err, domain.ErrRateLimited):
		return "The model is rate limited right now. Please try again in a minute.", nil
	case errors.Is(err, domain.ErrInvalidInput):
		return "The model rejected this input. Try rephrasing or shortening it.", nil
	default:
		return "", err
	}
}

// HandlePrivacy dispatches the /privacy subcommands: no args or "info"
// prints current settings, "allow"/"deny" set consent, "clear" evicts the
// user's cached context, "mode <m>" switches the privacy mode.
func (b *BotFacade) HandlePrivacy(ctx context.Context, userID string, args []string) (string, error) {
	if len(args) == 0 || args[0] == "info" {
		return b.privacyInfo(ctx, userID)
	}
	switch args[0] {
	case "allow":
		if err := b.PrivacyUC.SetConsent(ctx, userID, model.ConsentAllow); err != nil {
			return "", err
		}
		return "Encrypted caching enabled. Responses will be faster.", nil
	case "deny":
		if err := b.PrivacyUC.SetConsent(ctx, userID, model.ConsentDeny); err != nil {
			return "", err
		}
		return "Caching disabled and your cached data cleared. Responses may be slower.", nil
	case "clear":
		if err := b.PrivacyUC.ClearCache(ctx, userID); err != nil {
			return "", err
		}
		return "All your cached data has been cleared.", nil
	case "mode":
		if len(args) < 2 {
			return "Usage: /privacy mode strict|balanced|permissive", nil
		}
		mode, ok := model.ParsePrivacyMode(args[1])
		if !ok {
			return "Unknown mode. Valid modes: strict, balanced, permissive.", nil
		}
		if err := b.PrivacyUC.SetMode(ctx, userID, mode); err != nil {
			return "", err
		}
		return fmt.Sprintf("Privacy mode set to %s.", mode), nil
	default:
		return "Invalid privacy command. Use /privacy to see options.", nil
	}
}

// HandleClear maps /clear onto cache eviction.
func (b *BotFacade) HandleClear(ctx context.Context, userID string) (string, error) {
	if err := b.PrivacyUC.ClearCache(ctx, userID); err != nil {
		return "", err
	}
	return "Your data cleared. Ready for fresh conversations.", nil
}

func (b *BotFacade) HandleModels(ctx context.Context) (string, error) {
	models, err := b.RelayUC.ListModels(ctx)
	if err != nil {
		return "", err
	}
	if len(models) == 0 {
		return "No models available.", nil
	}
	return "Available models:\n- " + strings.Join(models, "\n- "), nil
}

func (b *BotFacade) privacyInfo(ctx context.Context, userID string) (string, error) {
	pref, err := b.PrivacyUC.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	cacheStatus := "disabled"
	if pref.AllowsCaching() {
		cacheStatus = "enabled"
	}
	sb := strings.Builder{}
	sb.WriteString("Your privacy settings:\n\n")
	sb.WriteString(fmt.Sprintf("Conversation caching: %s\n", cacheStatus))
	sb.WriteString(fmt.Sprintf("Privacy mode: %s\n", pref.Mode))
	sb.WriteString("Cache duration: 2 hours max, encrypted, in-memory only\n\n")
	sb.WriteString("Commands:\n")
	sb.WriteString("/privacy allow - enable encrypted caching (faster responses)\n")
	sb.WriteString("/privacy deny - disable all caching (slower, more private)\n")
	sb.WriteString("/privacy clear - clear your cached data\n")
	sb.WriteString("/privacy mode strict|balanced|permissive - identity handling\n\n")
	sb.WriteString("In strict mode participant names are replaced with pseudonyms before anything is sent to a model.")
	return sb.String(), nil
}
