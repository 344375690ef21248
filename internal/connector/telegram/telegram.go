package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hejijunhao/chatsift/internal/connector"
	"github.com/hejijunhao/chatsift/internal/model"
)

var errStreamOnly = errors.New("telegram connector: live stream only, query not supported")

func init() {
	connector.Register("telegram", func() connector.Connector {
		return &Connector{}
	})
}

// Bot is the slice of the tgbotapi client the connector needs.
type Bot interface {
	GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Factory creates Bot instances; tests inject a fake.
type Factory func(token string) (Bot, error)

var defaultFactory Factory = func(token string) (Bot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return bot, nil
}

// Connector implements the connector.Connector interface for Telegram group
// chat via bot long polling.
type Connector struct {
	// Factory overrides the tgbotapi constructor. Nil means the real API.
	Factory Factory
}

func toChatMessage(msg *tgbotapi.Message) model.ChatMessage {
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	author := ""
	if msg.From != nil {
		author = msg.From.UserName
		if author == "" {
			author = msg.From.FirstName
		}
	}

	return model.ChatMessage{
		Text:      text,
		Author:    author,
		Timestamp: int64(msg.Date) * 1000,
	}
}

func (c *Connector) Stream(ctx context.Context, cfg connector.ConnectorConfig) (<-chan model.ChatMessage, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram connector: missing required bot token")
	}

	var chatFilter int64
	if raw := cfg.Extra["chat_id"]; raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("telegram connector: invalid chat_id %q: %w", raw, err)
		}
		chatFilter = id
	}

	factory := c.Factory
	if factory == nil {
		factory = defaultFactory
	}
	bot, err := factory(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram connector: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)
	slog.Info("telegram polling started", "chat_filter", chatFilter)

	ch := make(chan model.ChatMessage, 64)
	go func() {
		defer close(ch)
		defer bot.StopReceivingUpdates()
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				msg := update.Message
				if msg == nil {
					continue
				}
				if chatFilter != 0 && msg.Chat.ID != chatFilter {
					continue
				}
				m := toChatMessage(msg)
				if m.Text == "" {
					continue
				}
				select {
				case ch <- m:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

func (c *Connector) Query(ctx context.Context, cfg connector.ConnectorConfig, params connector.QueryParams) ([]model.ChatMessage, error) {
	return nil, errStreamOnly
}
