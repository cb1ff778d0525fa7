// Package delivery emails a copy of a finished letter to its author via
// AWS SES.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/ignite/cancellation-letters/internal/config"
	"github.com/ignite/cancellation-letters/internal/pkg/logger"
)

var (
	// ErrDisabled means delivery is not configured.
	ErrDisabled = errors.New("delivery: email copies are disabled")
	// ErrNoRecipient means the letter has no address to send to.
	ErrNoRecipient = errors.New("delivery: recipient address is empty")
)

// EmailSender is the subset of the SES v2 client the mailer uses.
type EmailSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Mailer sends letter copies. A Mailer with no sender is disabled.
type Mailer struct {
	client EmailSender
	from   string
}

// NewMailer creates a Mailer from config. It returns a disabled Mailer when
// delivery is off or has no from address.
func NewMailer(ctx context.Context, cfg config.DeliveryConfig) (*Mailer, error) {
	if !cfg.Enabled || cfg.FromAddress == "" {
		return &Mailer{}, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return NewMailerWithClient(sesv2.NewFromConfig(awsCfg), formatFrom(cfg.FromName, cfg.FromAddress)), nil
}

// NewMailerWithClient wraps an existing SES client.
func NewMailerWithClient(client EmailSender, from string) *Mailer {
	return &Mailer{client: client, from: from}
}

func formatFrom(name, address string) string {
	if name == "" {
		return address
	}
	return (&mail.Address{Name: name, Address: address}).String()
}

// Enabled reports whether SendCopy can deliver.
func (m *Mailer) Enabled() bool {
	return m != nil && m.client != nil
}

// SendCopy emails body as plain text and returns the SES message ID.
func (m *Mailer) SendCopy(ctx context.Context, to, subject, body string) (string, error) {
	if !m.Enabled() {
		return "", ErrDisabled
	}
	if to == "" {
		return "", ErrNoRecipient
	}

	out, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
				},
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("kind"), Value: aws.String("cancellation_letter")},
		},
	})
	if err != nil {
		logger.Error("letter copy send failed", "email", to, "error", err.Error())
		return "", fmt.Errorf("SES send failed: %w", err)
	}

	id := aws.ToString(out.MessageId)
	logger.Info("letter copy sent", "email", to, "message_id", id)
	return id, nil
}

// Subject builds the subject line for a letter copy.
func Subject(serviceName string) string {
	if serviceName == "" {
		return "Your cancellation letter"
	}
	return fmt.Sprintf("Your cancellation letter for %s", serviceName)
}
