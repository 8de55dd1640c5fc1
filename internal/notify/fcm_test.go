package notify

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
)

type fakeTokens struct {
	tokens []string
	err    error
}

func (f *fakeTokens) TokensForUser(ctx context.Context, userID uint64) ([]string, error) {
	return f.tokens, f.err
}

type fakeSender struct {
	sent    []*messaging.Message
	failFor map[string]error
}

func (f *fakeSender) Send(ctx context.Context, msg *messaging.Message) (string, error) {
	f.sent = append(f.sent, msg)
	if err, ok := f.failFor[msg.Token]; ok {
		return "", err
	}
	return "msg-id", nil
}

func TestNotifyUnconfiguredIsNoop(t *testing.T) {
	n := New(context.Background(), "", &fakeTokens{tokens: []string{"t1"}})
	report := n.Notify(context.Background(), 1, "title", "body", nil)
	assert.Zero(t, report.SuccessCount)
	assert.Zero(t, report.FailureCount)
}

func TestNotifyNoTokensIsNoop(t *testing.T) {
	sender := &fakeSender{}
	n := newWithSender(sender, &fakeTokens{})
	report := n.Notify(context.Background(), 1, "title", "body", nil)
	assert.Zero(t, report.SuccessCount)
	assert.Empty(t, sender.sent)
}

func TestNotifySendsPerToken(t *testing.T) {
	sender := &fakeSender{}
	n := newWithSender(sender, &fakeTokens{tokens: []string{"t1", "t2", "t3"}})

	report := n.Notify(context.Background(), 1, "New appeal", "body", map[string]string{"appeal_id": "7"})
	assert.Equal(t, 3, report.SuccessCount)
	assert.Zero(t, report.FailureCount)
	assert.Len(t, sender.sent, 3)
	assert.Equal(t, "New appeal", sender.sent[0].Notification.Title)
	assert.Equal(t, "7", sender.sent[0].Data["appeal_id"])
}

func TestNotifyContinuesPastFailures(t *testing.T) {
	sender := &fakeSender{failFor: map[string]error{"t2": errors.New("boom")}}
	n := newWithSender(sender, &fakeTokens{tokens: []string{"t1", "t2", "t3"}})

	report := n.Notify(context.Background(), 1, "title", "body", nil)
	assert.Equal(t, 2, report.SuccessCount)
	assert.Equal(t, 1, report.FailureCount)
	assert.Equal(t, []string{"t2"}, report.FailedTokens)
	// every token was attempted despite the middle one failing
	assert.Len(t, sender.sent, 3)
}

func TestNotifyTokenLookupFailure(t *testing.T) {
	sender := &fakeSender{}
	n := newWithSender(sender, &fakeTokens{err: errors.New("db down")})
	report := n.Notify(context.Background(), 1, "title", "body", nil)
	assert.Zero(t, report.SuccessCount)
	assert.Empty(t, sender.sent)
}
