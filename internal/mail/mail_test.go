package mail

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"restopos/internal/config"
	"restopos/internal/logging"
)

func newCapturingMailer(sendErr error) (*SMTPMailer, *[]*gomail.Message) {
	var sent []*gomail.Message
	m := &SMTPMailer{
		fromName:    "Restaurant POS",
		fromAddress: "no-reply@pos.test",
		send: func(msg *gomail.Message) error {
			sent = append(sent, msg)
			return sendErr
		},
	}
	return m, &sent
}

func TestSMTPMailer_SendOTP(t *testing.T) {
	mailer, sent := newCapturingMailer(nil)

	require.NoError(t, mailer.SendOTP(context.Background(), "ann@example.com", "042917", 15*time.Minute))
	require.Len(t, *sent, 1)

	msg := (*sent)[0]
	assert.Equal(t, []string{"ann@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{otpSubject}, msg.GetHeader("Subject"))
	assert.Contains(t, msg.GetHeader("From")[0], "no-reply@pos.test")

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	body := buf.String()
	assert.Contains(t, body, "Your OTP is: 042917. It will expire in 15 minutes.")
	assert.Contains(t, body, "<strong>042917</strong>")
	assert.Contains(t, body, "text/html")
}

func TestSMTPMailer_SendFailure(t *testing.T) {
	mailer, _ := newCapturingMailer(errors.New("dial tcp: connection refused"))

	err := mailer.SendOTP(context.Background(), "ann@example.com", "123456", time.Minute)
	assert.ErrorContains(t, err, "connection refused")
}

func TestSMTPMailer_CanceledContext(t *testing.T) {
	mailer, sent := newCapturingMailer(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, mailer.SendOTP(ctx, "ann@example.com", "123456", time.Minute), context.Canceled)
	assert.Empty(t, *sent)
}

func TestNew_PicksTransport(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, "info", "json")

	sender, err := New(config.MailConfig{}, false, log)
	require.NoError(t, err)
	_, isLog := sender.(*LogMailer)
	assert.True(t, isLog)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), "EMAIL_HOST not set")

	for _, production := range []bool{false, true} {
		sender, err = New(config.MailConfig{Host: "smtp.example.com", Port: 587}, production, log)
		require.NoError(t, err)
		_, isSMTP := sender.(*SMTPMailer)
		assert.True(t, isSMTP)
	}
}

func TestNew_ProductionRequiresHost(t *testing.T) {
	sender, err := New(config.MailConfig{}, true, logging.Discard())
	assert.ErrorIs(t, err, ErrNoTransport)
	assert.Nil(t, sender)
}

func TestLogMailer_WritesCode(t *testing.T) {
	var buf bytes.Buffer
	mailer := NewLogMailer(logging.New(&buf, "info", "json"))

	require.NoError(t, mailer.SendOTP(context.Background(), "ann@example.com", "778899", 15*time.Minute))
	assert.Contains(t, buf.String(), "778899")
	assert.Contains(t, buf.String(), `"component":"mail"`)
}
