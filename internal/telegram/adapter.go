// internal/telegram/adapter.go
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/inkwell/internal/gateway"
	"github.com/user/inkwell/internal/types"
	"github.com/user/inkwell/internal/writer"
)

const maxTelegramMessage = 4096

// Adapter treats a Telegram chat as a host channel: inbound messages flow
// into the gateway and finished diary entries are announced back.
type Adapter struct {
	bot           *tgbotapi.BotAPI
	gateway       *gateway.Gateway
	conversations types.ConversationStore
	narrator      string
}

// New creates a Telegram adapter narrating as the given character.
func New(token string, gw *gateway.Gateway, conversations types.ConversationStore, narrator string) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Adapter{
		bot:           bot,
		gateway:       gw,
		conversations: conversations,
		narrator:      narrator,
	}, nil
}

// Start begins long-polling for Telegram updates.
func (a *Adapter) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			a.handleMessage(ctx, update.Message)
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return
		}
	}
}

func (a *Adapter) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		a.handleCommand(ctx, msg)
		return
	}

	err := a.gateway.HandleMessage(ctx, gateway.InboundMessage{
		Narrator:     a.narrator,
		Conversation: buildConversationID(msg.Chat.ID),
		Name:         senderName(msg),
		Payload:      msg.Text,
		IsUser:       true,
	})
	if err != nil {
		slog.Error("telegram inbound failed", "chat_id", msg.Chat.ID, "error", err)
	}
}

func (a *Adapter) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	key := types.NewConversationKey(a.narrator, buildConversationID(chatID))

	switch msg.Command() {
	case "start":
		a.send(chatID, fmt.Sprintf("%s's diary is listening. Story dates in this chat will become diary entries.", a.narrator))

	case "diary":
		state, err := a.conversations.Load(ctx, key)
		if err != nil {
			a.send(chatID, "Error reading the diary.")
			return
		}
		if len(state.Entries) == 0 {
			a.send(chatID, "The diary is still empty.")
			return
		}
		latest := state.Entries[len(state.Entries)-1]
		a.send(chatID, FormatEntry(&latest))

	case "switch":
		a.gateway.SwitchConversation(key)
		a.send(chatID, "Starting fresh. Earlier dialogue will not appear in new entries.")

	default:
		a.send(chatID, "Unknown command. Available: /start, /diary, /switch")
	}
}

// EntryCreated is the delivery handler: it posts the finished entry back to
// the originating chat.
func (a *Adapter) EntryCreated(_ context.Context, key types.ConversationKey, entry *types.DiaryEntry) error {
	chatID, err := chatIDFromConversation(key.Conversation())
	if err != nil {
		return err
	}
	a.send(chatID, FormatEntry(entry))
	if entry.ImageURL != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(entry.ImageURL))
		if _, err := a.bot.Send(photo); err != nil {
			slog.Warn("send entry photo failed", "chat_id", chatID, "error", err)
		}
	}
	return nil
}

// FormatEntry renders an entry for a plain-text channel.
func FormatEntry(entry *types.DiaryEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📖 %s %s\n", writer.FormatDate(entry.Date), entry.Weather)
	if entry.Mood != "" {
		fmt.Fprintf(&b, "— %s\n", entry.Mood)
	}
	b.WriteString("\n")
	b.WriteString(entry.Content)
	return b.String()
}

func (a *Adapter) send(chatID int64, text string) {
	for _, part := range splitMessage(text) {
		msg := tgbotapi.NewMessage(chatID, part)
		if _, err := a.bot.Send(msg); err != nil {
			slog.Error("send message failed", "chat_id", chatID, "error", err)
		}
	}
}

func splitMessage(text string) []string {
	if len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		end := maxTelegramMessage
		if end > len(text) {
			end = len(text)
		}
		parts = append(parts, text[:end])
		text = text[end:]
	}
	return parts
}

// senderName resolves a display name for the author. Channel posts arrive
// with From unset, so fall back to the chat title.
func senderName(msg *tgbotapi.Message) string {
	if msg.From != nil {
		if msg.From.UserName != "" {
			return msg.From.UserName
		}
		return msg.From.FirstName
	}
	if msg.Chat != nil && msg.Chat.Title != "" {
		return msg.Chat.Title
	}
	return "anonymous"
}

func buildConversationID(chatID int64) string {
	return "telegram:" + strconv.FormatInt(chatID, 10)
}

func chatIDFromConversation(conversation string) (int64, error) {
	raw, ok := strings.CutPrefix(conversation, "telegram:")
	if !ok {
		return 0, fmt.Errorf("not a telegram conversation: %s", conversation)
	}
	return strconv.ParseInt(raw, 10, 64)
}
