// Package notify delivers push notifications to users through FCM.  The
// whole layer is deliberately best-effort: delivery failures are logged
// and counted, never retried and never surfaced to the request that
// triggered them, and when the Admin SDK was never configured the
// Notifier degrades to a silent no-op so appeal and message operations
// keep working without push infrastructure.
package notify

import (
	"context"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// tokenSource resolves the push tokens registered for a user.  Satisfied
// by repository.DeviceTokenRepo.
type tokenSource interface {
	TokensForUser(ctx context.Context, userID uint64) ([]string, error)
}

// messageSender is the slice of *messaging.Client the Notifier uses;
// tests substitute a fake.
type messageSender interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

// DeliveryReport summarizes one fan-out to a user's devices.
type DeliveryReport struct {
	SuccessCount int
	FailureCount int
	FailedTokens []string
}

// Notifier sends one discrete FCM message per registered device token.
type Notifier struct {
	sender messageSender // nil when FCM is not configured
	tokens tokenSource
}

// New initializes the FCM Admin SDK from a service-account file.  A
// missing path or failed initialization is logged and produces a no-op
// Notifier instead of an error.
func New(ctx context.Context, credentialsPath string, tokens tokenSource) *Notifier {
	n := &Notifier{tokens: tokens}
	if credentialsPath == "" {
		log.Printf("notify: FIREBASE_CREDENTIALS_PATH not set, push notifications disabled")
		return n
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		log.Printf("notify: firebase init failed, push notifications disabled: %v", err)
		return n
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		log.Printf("notify: messaging client init failed, push notifications disabled: %v", err)
		return n
	}
	n.sender = client
	return n
}

// newWithSender is the constructor tests use to inject a fake sender.
func newWithSender(sender messageSender, tokens tokenSource) *Notifier {
	return &Notifier{sender: sender, tokens: tokens}
}

// Notify sends title/body/data to every device token of one user.  Each
// token is sent to independently: an unregistered token or a provider
// error is recorded in the report and delivery continues with the
// remaining tokens.  A user with no tokens, or an unconfigured sender,
// is a no-op.
func (n *Notifier) Notify(ctx context.Context, userID uint64, title, body string, data map[string]string) DeliveryReport {
	var report DeliveryReport
	if n.sender == nil {
		return report
	}
	tokens, err := n.tokens.TokensForUser(ctx, userID)
	if err != nil {
		log.Printf("notify: loading tokens for user %d failed: %v", userID, err)
		return report
	}
	if len(tokens) == 0 {
		return report
	}
	if data == nil {
		data = map[string]string{}
	}
	for _, token := range tokens {
		msg := &messaging.Message{
			Notification: &messaging.Notification{Title: title, Body: body},
			Data:         data,
			Token:        token,
		}
		if _, err := n.sender.Send(ctx, msg); err != nil {
			report.FailureCount++
			report.FailedTokens = append(report.FailedTokens, token)
			if messaging.IsUnregistered(err) {
				log.Printf("notify: token %s is unregistered", tail(token))
			} else {
				log.Printf("notify: send to token %s failed: %v", tail(token), err)
			}
			continue
		}
		report.SuccessCount++
	}
	if report.FailureCount > 0 {
		log.Printf("notify: user %d: %d sent, %d failed", userID, report.SuccessCount, report.FailureCount)
	}
	return report
}

// tail shortens a token for logging; full tokens are credentials and do
// not belong in logs.
func tail(token string) string {
	if len(token) <= 10 {
		return token
	}
	return "..." + token[len(token)-10:]
}
