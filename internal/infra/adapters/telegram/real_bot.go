package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-ai-relay/internal/application"
	"telegram-ai-relay/internal/config"
	"telegram-ai-relay/internal/infra/adapters/history"
	"telegram-ai-relay/internal/infra/logging"
	red "telegram-ai-relay/internal/infra/redis"
	"telegram-ai-relay/internal/infra/worker"
)

const maxTelegramMessage = 4096

// RealTelegramBotAdapter polls updates and delegates to BotFacade. Every
// observed plain message also feeds the history tracker so the live context
// source has a window to serve.
type RealTelegramBotAdapter struct {
	bot         *tgbotapi.BotAPI
	cfg         *config.BotConfig
	facade      *application.BotFacade
	rateLimiter *red.RateLimiter
	tracker     *history.Tracker
	pool        *worker.Pool
	log         *zerolog.Logger

	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(
	cfg *config.BotConfig,
	facade *application.BotFacade,
	rateLimiter *red.RateLimiter,
	tracker *history.Tracker,
	pool *worker.Pool,
	logger *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}
	if tracker == nil {
		return nil, errors.New("history tracker is nil")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	l := logger.With().Str("component", "TelegramBot").Logger()
	return &RealTelegramBotAdapter{
		bot:         bot,
		cfg:         cfg,
		facade:      facade,
		rateLimiter: rateLimiter,
		tracker:     tracker,
		pool:        pool,
		log:         &l,
	}, nil
}

func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	r.log.Info().Str("username", r.bot.Self.UserName).Msg("polling started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case up := <-updates:
			if err := r.pool.Submit(func(taskCtx context.Context) error {
				return r.handleUpdate(taskCtx, up)
			}); err != nil {
				r.log.Warn().Err(err).Msg("update dropped")
			}
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, up tgbotapi.Update) error {
	msg := up.Message
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return nil
	}

	userID := strconv.FormatInt(msg.From.ID, 10)
	channelID := strconv.FormatInt(msg.Chat.ID, 10)
	ctx = logging.WithTraceID(ctx, ulid.Make().String())
	ctx = logging.WithUserID(ctx, userID)
	ctx = logging.WithChannelID(ctx, channelID)

	// Documents carry their command in the caption, not in Text/Entities,
	// so IsCommand() never fires for them.
	command := msg.Command()
	if command == "" && msg.Document != nil {
		command = documentCommand(msg)
	}
	if command == "" {
		r.tracker.Observe(channelID, displayName(msg.From), msg.Text, msg.Time())
		return nil
	}

	if ok := r.allow(ctx, msg.From.ID, command); !ok {
		return r.SendMessage(ctx, msg.Chat.ID, "You're sending commands too fast. Give it a minute.")
	}

	handler, ok := r.commandRoutes()[command]
	if !ok {
		return nil
	}
	if err := handler(ctx, msg); err != nil {
		logging.With(ctx, r.log).Error().Err(err).Str("command", command).Msg("command failed")
		return r.SendMessage(ctx, msg.Chat.ID, "Something went wrong. Please try again.")
	}
	return nil
}

// allow consults the rate limiter; a limiter outage fails open so a Redis
// blip never silences the bot.
func (r *RealTelegramBotAdapter) allow(ctx context.Context, tgID int64, command string) bool {
	if r.rateLimiter == nil {
		return true
	}
	ok, err := r.rateLimiter.Allow(ctx, red.UserCommandKey(tgID, command), 5, time.Minute)
	if err != nil {
		logging.With(ctx, r.log).Warn().Err(err).Msg("rate limiter unavailable, failing open")
		return true
	}
	return ok
}

// SendMessage splits long replies at paragraph boundaries so each chunk
// stays under the platform limit.
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	for _, chunk := range splitMessage(text, maxTelegramMessage-96) {
		m := tgbotapi.NewMessage(chatID, chunk)
		if _, err := r.bot.Send(m); err != nil {
			return err
		}
	}
	return nil
}

func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	var current strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		// A single oversized paragraph is split hard.
		for len(para) > limit {
			chunks = appendChunk(chunks, &current)
			chunks = append(chunks, para[:limit])
			para = para[limit:]
		}
		if current.Len()+len(para)+2 > limit {
			chunks = appendChunk(chunks, &current)
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	chunks = appendChunk(chunks, &current)
	return chunks
}

func appendChunk(chunks []string, current *strings.Builder) []string {
	if s := strings.TrimSpace(current.String()); s != "" {
		chunks = append(chunks, s)
	}
	current.Reset()
	return chunks
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = strconv.FormatInt(u.ID, 10)
	}
	return name
}
