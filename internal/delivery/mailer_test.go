package delivery

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/ignite/cancellation-letters/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSendCopy(t *testing.T) {
	fake := &fakeSES{}
	m := NewMailerWithClient(fake, "letters@example.com")

	id, err := m.SendCopy(context.Background(), "jane@example.com", "Subject", "Body text")
	require.NoError(t, err)
	assert.Equal(t, "msg-123", id)

	require.NotNil(t, fake.input)
	assert.Equal(t, "letters@example.com", aws.ToString(fake.input.FromEmailAddress))
	assert.Equal(t, []string{"jane@example.com"}, fake.input.Destination.ToAddresses)
	assert.Equal(t, "Subject", aws.ToString(fake.input.Content.Simple.Subject.Data))
	assert.Equal(t, "Body text", aws.ToString(fake.input.Content.Simple.Body.Text.Data))
	assert.Nil(t, fake.input.Content.Simple.Body.Html)
}

func TestSendCopyErrors(t *testing.T) {
	m := NewMailerWithClient(&fakeSES{err: errors.New("throttled")}, "from@example.com")
	_, err := m.SendCopy(context.Background(), "jane@example.com", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")

	_, err = m.SendCopy(context.Background(), "", "s", "b")
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestDisabledMailer(t *testing.T) {
	m, err := NewMailer(context.Background(), config.DeliveryConfig{Enabled: false, FromAddress: "a@example.com"})
	require.NoError(t, err)
	assert.False(t, m.Enabled())

	_, err = m.SendCopy(context.Background(), "jane@example.com", "s", "b")
	assert.ErrorIs(t, err, ErrDisabled)

	var nilMailer *Mailer
	_, err = nilMailer.SendCopy(context.Background(), "jane@example.com", "s", "b")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestFormatFromAndSubject(t *testing.T) {
	assert.Equal(t, "a@example.com", formatFrom("", "a@example.com"))
	assert.Equal(t, `"Cancellation Letters" <a@example.com>`, formatFrom("Cancellation Letters", "a@example.com"))
	assert.Equal(t, "Your cancellation letter for Netflix", Subject("Netflix"))
	assert.Equal(t, "Your cancellation letter", Subject(""))
}
