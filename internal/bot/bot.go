// internal/bot/bot.go
package bot

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"tesoreria/internal/aggregate"
	"tesoreria/internal/domain"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const helpText = "🏫 *Tesorería del paralelo*\n\n" +
	"Consulta los pagos de un estudiante:\n" +
	"`/cedula 0102030405`\n" +
	"o envía solo el número de cédula."

// Lookup is the public statement query the bot answers.
type Lookup interface {
	StudentStatement(ctx context.Context, cedula string) (domain.StudentStatement, error)
}

// Sender is the part of *tgbotapi.BotAPI the bot needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	lookup  Lookup
	sender  Sender
	printer *message.Printer
}

func New(lookup Lookup, sender Sender) *Bot {
	return &Bot{
		lookup:  lookup,
		sender:  sender,
		printer: message.NewPrinter(language.Spanish),
	}
}

// Reply builds the answer to one incoming text.
func (b *Bot) Reply(ctx context.Context, text string) string {
	text = stripMention(strings.TrimSpace(domain.CleanText(fixEncoding(text))))

	switch {
	case text == "/start" || text == "/help":
		return helpText
	case text == "/cedula":
		return "❌ Usa: `/cedula 0102030405`"
	case strings.HasPrefix(text, "/cedula "):
		return b.statement(ctx, strings.TrimSpace(strings.TrimPrefix(text, "/cedula ")))
	case looksLikeCedula(text):
		return b.statement(ctx, text)
	default:
		return "Comando no reconocido. Escribe /help"
	}
}

func (b *Bot) statement(ctx context.Context, cedula string) string {
	st, err := b.lookup.StudentStatement(ctx, cedula)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
		return fmt.Sprintf("📭 No hay un estudiante con la cédula %s", escape(cedula))
	}
	if err != nil {
		slog.ErrorContext(ctx, "bot lookup failed", "error", err)
		return "❌ Ocurrió un error, intenta más tarde."
	}

	lines := []string{
		fmt.Sprintf("📋 *%s*", escape(st.Name)),
		"Cédula: " + escape(st.Cedula),
		"Total pagado: " + b.amount(st.TotalPaid),
		"",
	}
	if len(st.Payments) == 0 {
		lines = append(lines, "Sin pagos registrados.")
	} else {
		lines = append(lines, "Pagos:")
		for _, p := range aggregate.NewestFirst(st.Payments) {
			lines = append(lines, fmt.Sprintf("- %s %s: %s", p.Month, p.Year, b.amount(p.Amount)))
		}
	}
	return strings.Join(lines, "\n")
}

func (b *Bot) amount(m domain.Money) string {
	f, _ := m.Float64()
	return b.printer.Sprintf("$%.2f", f)
}

// HandleUpdate answers one update. Updates without a text message are ignored.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.Message == nil || update.Message.Chat == nil {
		return nil
	}
	slog.DebugContext(ctx, "bot message", "chat_id", update.Message.Chat.ID)

	msg := tgbotapi.NewMessage(update.Message.Chat.ID, b.Reply(ctx, update.Message.Text))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.sender.Send(msg); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

// Run long-polls Telegram until ctx is cancelled.
func (b *Bot) Run(ctx context.Context, api *tgbotapi.BotAPI) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := b.HandleUpdate(ctx, update); err != nil {
				slog.Error("bot update failed", "error", err)
			}
		}
	}
}

// SecretHeader carries the secret_token given to setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Webhook serves Telegram updates pushed to the API. Requests that do not
// echo secret in SecretHeader are rejected; an empty secret rejects all.
func (b *Bot) Webhook(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(SecretHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			slog.Warn("telegram update with bad secret", "client_ip", c.ClientIP())
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		var update tgbotapi.Update
		if err := c.ShouldBindJSON(&update); err != nil {
			slog.Warn("bad telegram update", "error", err)
			c.Status(http.StatusBadRequest)
			return
		}
		if err := b.HandleUpdate(c.Request.Context(), update); err != nil {
			slog.Error("bot update failed", "error", err)
		}
		c.Status(http.StatusOK)
	}
}

// stripMention turns "/cedula@TesoreriaBot 123" into "/cedula 123", the form
// group chats send commands in.
func stripMention(text string) string {
	if !strings.HasPrefix(text, "/") {
		return text
	}
	cmd, rest, _ := strings.Cut(text, " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	if rest == "" {
		return cmd
	}
	return cmd + " " + rest
}

func looksLikeCedula(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '-' || r == '.' || r == ' ':
		default:
			return false
		}
	}
	return digits >= 6
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// fixEncoding repairs text some clients send as windows-1252.
func fixEncoding(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	fixed, err := charmap.Windows1252.NewDecoder().String(s)
	if err == nil && utf8.ValidString(fixed) {
		return fixed
	}
	return strings.ToValidUTF8(s, "")
}
