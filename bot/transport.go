package bot

import "context"

// MessageRef указывает на отправленное сообщение.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Button - inline-кнопка. Заполняется ровно одно из Data, URL, WebAppURL.
type Button struct {
	Text      string
	Data      string
	URL       string
	WebAppURL string
}

// Markup - клавиатура, прикладываемая к сообщению.
type Markup interface {
	isMarkup()
}

type InlineKeyboard [][]Button

type ReplyButton struct {
	Text           string
	RequestContact bool
	WebAppURL      string
}

type ReplyKeyboard struct {
	Rows    [][]ReplyButton
	OneTime bool
}

// RemoveKeyboard убирает reply-клавиатуру.
type RemoveKeyboard struct{}

func (InlineKeyboard) isMarkup() {}
func (ReplyKeyboard) isMarkup() {}
func (RemoveKeyboard) isMarkup() {}

// Transport - исходящие примитивы мессенджера.
type Transport interface {
	Send(ctx context.Context, chatID int64, text string, markup Markup) (MessageRef, error)
	// EditActions заменяет inline-кнопки сообщения; nil убирает их.
	EditActions(ctx context.Context, ref MessageRef, keyboard InlineKeyboard) error
	Delete(ctx context.Context, ref MessageRef) error
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
}

type EventKind int

const (
	EventText EventKind = iota
	EventCommand
	EventContact
	EventCallback
	EventWebAppData
)

// Principal - отправитель события.
type Principal struct {
	ID       int64
	Username *string
	FullName string
}

type Contact struct {
	PhoneNumber string
	UserID      int64
}

type Callback struct {
	ID      string
	Data    string
	Message MessageRef
}

// Event - входящее событие транспорта.
type Event struct {
	Kind    EventKind
	From    Principal
	ChatID  int64
	Text    string
	Command string

	Contact    *Contact
	Callback   *Callback
	WebAppData string
}
