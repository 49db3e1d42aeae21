// Package notify шлёт сводку по завершённой заявке в чат закупок.
package notify

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mbops/stockroom/internal/domain/requests"
)

type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
	log    *slog.Logger
}

// New возвращает nil, если токен или чат не настроены; nil-уведомитель
// ничего не делает.
func New(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{api: api, chatID: chatID, log: log}, nil
}

// RequestCompleted отправляет сводку. Сбой отправки только логируется:
// заявка уже завершена, ронять запрос из-за уведомления нельзя.
func (t *Telegram) RequestCompleted(list *requests.List, lines []requests.LineView) {
	if t == nil {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Заявка #%d завершена (%s):\n", list.ID, list.StaffName)
	for _, ln := range lines {
		fmt.Fprintf(&b, "— %s × %d\n", ln.ItemName, ln.Quantity)
	}
	fmt.Fprintf(&b, "Всего позиций: %d", requests.TotalQuantity(lines))

	if _, err := t.api.Send(tgbotapi.NewMessage(t.chatID, b.String())); err != nil {
		t.log.Error("completion notify failed", "err", err, "list_id", list.ID)
	}
}
