package model

import (
	"context"
	"time"
)

// Notifier delivers a message to the owner of an identity.
type Notifier interface {
	Send(ctx context.Context, identity Identity, message Message) error
}

// MessageKind names the template a delivery worker renders.
type MessageKind string

const (
	MessageVerificationCode MessageKind = "verification_code"
)

// Message is a notification addressed to an identity.
type Message struct {
	Kind      MessageKind
	Subject   string
	Body      string
	ExpiresIn time.Duration
}
