package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophdrop/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type fakeMailClient struct {
	msgs []*mail.Msg
	err  error
}

func (f *fakeMailClient) DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, messages...)
	return nil
}

func withFakeMailClient(t *testing.T, fc *fakeMailClient) *string {
	t.Helper()
	var gotHost string
	old := newMailClient
	newMailClient = func(host string, opts ...mail.Option) (mailClient, error) {
		gotHost = host
		return fc, nil
	}
	t.Cleanup(func() { newMailClient = old })
	return &gotHost
}

func TestSMTPSender_Send(t *testing.T) {
	fc := &fakeMailClient{}
	host := withFakeMailClient(t, fc)

	s, err := NewSMTPSender(SMTPConfig{
		Host:      "smtp.example.com",
		FromEmail: "noreply@example.com",
		FromName:  "Drop",
	}, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com", *host)
	assert.Equal(t, 587, s.cfg.Port)

	err = s.Send(context.Background(), Message{
		ToName: "Alice", ToEmail: "alice@example.com",
		Subject: Subject, Text: "hi", HTML: "<p>hi</p>",
	})
	require.NoError(t, err)
	require.Len(t, fc.msgs, 1)

	rcpts, err := fc.msgs[0].GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com"}, rcpts)
	assert.Equal(t, []string{Subject}, fc.msgs[0].GetGenHeader(mail.HeaderSubject))
}

func TestSMTPSender_SendError(t *testing.T) {
	fc := &fakeMailClient{err: errors.New("connection refused")}
	withFakeMailClient(t, fc)

	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", FromEmail: "noreply@example.com"}, logging.Discard())
	require.NoError(t, err)

	err = s.Send(context.Background(), Message{ToEmail: "alice@example.com", Text: "hi"})
	assert.ErrorIs(t, err, fc.err)
}

func TestSMTPSender_BadAddress(t *testing.T) {
	withFakeMailClient(t, &fakeMailClient{})

	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", FromEmail: "noreply@example.com"}, logging.Discard())
	require.NoError(t, err)

	err = s.Send(context.Background(), Message{ToEmail: "not an address", Text: "hi"})
	assert.Error(t, err)
}

func TestNewSMTPSender_RequiresHost(t *testing.T) {
	_, err := NewSMTPSender(SMTPConfig{}, logging.Discard())
	assert.Error(t, err)
}

func TestClientOptions(t *testing.T) {
	assert.Len(t, clientOptions(SMTPConfig{Port: 25, Encryption: EncryptionNone}), 2)
	assert.Len(t, clientOptions(SMTPConfig{Port: 465, Encryption: EncryptionSSL, Username: "u"}), 5)
	assert.Len(t, clientOptions(SMTPConfig{Port: 587, Username: "u"}), 5)
}
