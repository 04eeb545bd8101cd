package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
	"github.com/gofiber/fiber/v2"
)

const defaultHTTPTimeout = 10 * time.Second

var (
	// ErrForbidden is returned when the caller may not access the delivery.
	ErrForbidden = errors.New("client: forbidden")
	// ErrNotFound is returned when the delivery does not exist.
	ErrNotFound = errors.New("client: delivery not found")
	// ErrUnauthorized is returned when the access token is rejected.
	ErrUnauthorized = errors.New("client: unauthorized")
)

// HTTPMessageStore is a MessageStore backed by the broker's REST API.
type HTTPMessageStore struct {
	baseURL string
	token   string
	timeout time.Duration
}

var _ MessageStore = (*HTTPMessageStore)(nil)

// NewHTTPMessageStore creates a store for the API at baseURL (for example
// http://localhost:3000) authenticating with token.
func NewHTTPMessageStore(baseURL, token string) *HTTPMessageStore {
	return &HTTPMessageStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		timeout: defaultHTTPTimeout,
	}
}

type createMessageBody struct {
	Content string `json:"content"`
}

type messageList struct {
	Messages []delivery.Message `json:"messages"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Create persists a chat message. The server takes the sender from the
// access token, so senderID is not sent.
func (s *HTTPMessageStore) Create(ctx context.Context, content, _, deliveryID string) (*delivery.Message, error) {
	agent := fiber.Post(s.messagesURL(deliveryID)).JSON(createMessageBody{Content: content})

	var msg delivery.Message
	if err := s.do(ctx, agent, fiber.StatusCreated, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// List returns the chat history of deliveryID, oldest first.
func (s *HTTPMessageStore) List(ctx context.Context, deliveryID string) ([]delivery.Message, error) {
	agent := fiber.Get(s.messagesURL(deliveryID))

	var list messageList
	if err := s.do(ctx, agent, fiber.StatusOK, &list); err != nil {
		return nil, err
	}
	return list.Messages, nil
}

func (s *HTTPMessageStore) messagesURL(deliveryID string) string {
	return s.baseURL + "/api/v1/deliveries/" + url.PathEscape(deliveryID) + "/messages"
}

// prepare authenticates the request and bounds it by the store timeout or
// the context deadline, whichever is sooner.
func (s *HTTPMessageStore) prepare(ctx context.Context, agent *fiber.Agent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	agent.Set(fiber.HeaderAuthorization, "Bearer "+s.token)
	timeout := s.timeout
	if d, ok := ctx.Deadline(); ok {
		until := time.Until(d)
		if until <= 0 {
			return context.DeadlineExceeded
		}
		timeout = min(timeout, until)
	}
	agent.Timeout(timeout)
	return nil
}

type response struct {
	code int
	body []byte
	errs []error
}

// do sends the request and decodes a reply with status want into out. It
// returns as soon as ctx is done; the agent finishes in the background
// within its timeout.
func (s *HTTPMessageStore) do(ctx context.Context, agent *fiber.Agent, want int, out any) error {
	if err := s.prepare(ctx, agent); err != nil {
		return err
	}

	done := make(chan response, 1)
	go func() {
		code, body, errs := agent.Bytes()
		done <- response{code: code, body: body, errs: errs}
	}()

	var r response
	select {
	case <-ctx.Done():
		return ctx.Err()
	case r = <-done:
	}
	code, body := r.code, r.body
	if len(r.errs) > 0 {
		return fmt.Errorf("client: request failed: %w", errors.Join(r.errs...))
	}

	if code != want {
		var e errorBody
		_ = json.Unmarshal(body, &e)
		switch code {
		case fiber.StatusUnauthorized:
			return ErrUnauthorized
		case fiber.StatusForbidden:
			return ErrForbidden
		case fiber.StatusNotFound:
			return ErrNotFound
		}
		return fmt.Errorf("client: unexpected status %d: %s", code, e.Message)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}
