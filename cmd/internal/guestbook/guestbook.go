// Package guestbook handles visitor messages. Messages live inside the site
// content document under the "messages" key so an export or import carries
// them along with everything else; this package is the only writer of that
// key.
package guestbook

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"html"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"folio/cmd/internal/docstore"
)

// MaxMessages bounds the stored list; the oldest message is dropped once a
// new submission would exceed it.
const MaxMessages = 200

// MaxMessageLength bounds the message body in runes.
const MaxMessageLength = 1000

var (
	ErrInvalidInput = errors.New("invalid_input")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrTooLong      = errors.New("message_too_long")
	ErrNotFound     = errors.New("message_not_found")
	ErrRateLimited  = errors.New("rate_limited")
)

// Message is one stored visitor message, newest first in the list.
type Message struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Message string    `json:"message"`
	IP      string    `json:"ip"`
	Read    bool      `json:"read"`
	Date    time.Time `json:"date"`
}

// Notifier receives submission events. The zero implementation drops them.
type Notifier interface {
	MessageSubmitted(Message)
}

type nopNotifier struct{}

func (nopNotifier) MessageSubmitted(Message) {}

// Service implements the guestbook operations over the site document.
type Service struct {
	store    docstore.Store
	limiter  *RateLimiter
	notifier Notifier

	now func() time.Time
}

// NewService wires the guestbook over the document store. A nil limiter
// disables rate limiting; a nil notifier drops events.
func NewService(store docstore.Store, limiter *RateLimiter, notifier Notifier) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Service{
		store:    store,
		limiter:  limiter,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SubmitInput is a raw visitor submission, unsanitized.
type SubmitInput struct {
	Name    string
	Email   string
	Message string
	IP      string
}

// Submit validates, sanitizes and stores a visitor message, then notifies.
// Exactly one site-document write per accepted submission.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Message, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	body := strings.TrimSpace(in.Message)

	if name == "" || email == "" || body == "" {
		return Message{}, ErrInvalidInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return Message{}, ErrInvalidEmail
	}
	if utf8.RuneCountInString(body) > MaxMessageLength {
		return Message{}, ErrTooLong
	}

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, in.IP)
		if err != nil {
			return Message{}, err
		}
		if !ok {
			return Message{}, ErrRateLimited
		}
	}

	now := s.now()
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return Message{}, err
	}

	msg := Message{
		ID:      id.String(),
		Name:    html.EscapeString(name),
		Email:   html.EscapeString(email),
		Message: html.EscapeString(body),
		IP:      in.IP,
		Date:    now,
	}

	err = s.updateMessages(ctx, func(msgs []Message) ([]Message, error) {
		msgs = append([]Message{msg}, msgs...)
		if len(msgs) > MaxMessages {
			msgs = msgs[:MaxMessages]
		}
		return msgs, nil
	})
	if err != nil {
		return Message{}, err
	}

	s.notifier.MessageSubmitted(msg)
	return msg, nil
}

// List returns all stored messages, newest first, plus the unread count.
func (s *Service) List(ctx context.Context) ([]Message, int, error) {
	raw, err := s.store.Read(ctx, docstore.DocSiteData)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, 0, nil
		}
		return nil, 0, err
	}

	msgs := decodeMessages(raw)
	unread := 0
	for _, m := range msgs {
		if !m.Read {
			unread++
		}
	}
	return msgs, unread, nil
}

// MarkRead flags one message as read.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	return s.updateMessages(ctx, func(msgs []Message) ([]Message, error) {
		for i := range msgs {
			if msgs[i].ID == id {
				msgs[i].Read = true
				return msgs, nil
			}
		}
		return nil, ErrNotFound
	})
}

// Delete removes one message.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	return s.updateMessages(ctx, func(msgs []Message) ([]Message, error) {
		for i := range msgs {
			if msgs[i].ID == id {
				return append(msgs[:i], msgs[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
}

// updateMessages rewrites the "messages" key inside the site document while
// leaving every other key untouched.
func (s *Service) updateMessages(ctx context.Context, fn func([]Message) ([]Message, error)) error {
	return s.store.Update(ctx, docstore.DocSiteData, func(current []byte) ([]byte, error) {
		var doc map[string]json.RawMessage
		if len(current) > 0 {
			if err := json.Unmarshal(current, &doc); err != nil {
				doc = nil
			}
		}
		if doc == nil {
			doc = map[string]json.RawMessage{}
		}

		var msgs []Message
		if raw, ok := doc["messages"]; ok {
			_ = json.Unmarshal(raw, &msgs)
		}

		next, err := fn(msgs)
		if err != nil {
			return nil, err
		}
		if next == nil {
			next = []Message{}
		}

		encoded, err := json.Marshal(next)
		if err != nil {
			return nil, err
		}
		doc["messages"] = encoded
		return json.MarshalIndent(doc, "", "  ")
	})
}

func decodeMessages(raw []byte) []Message {
	var doc struct {
		Messages []Message `json:"messages"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	return doc.Messages
}
