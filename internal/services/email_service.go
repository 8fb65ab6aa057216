package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	pkglogger "github.com/storesmith/storefront/pkg/logger"
)

// EmailSender is the notification sink for account emails. The session
// service treats dispatch as fire-and-forget.
type EmailSender interface {
	SendVerificationEmail(ctx context.Context, email, rawToken string) error
	SendPasswordResetEmail(ctx context.Context, email, rawToken string) error
}

// SESEmailService sends account emails through AWS SES.
type SESEmailService struct {
	client      *ses.Client
	fromAddress string
	baseURL     string
	logger      *slog.Logger
}

func NewSESEmailService(region, fromAddress, baseURL string, logger *slog.Logger) (*SESEmailService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESEmailService{
		client:      ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		baseURL:     baseURL,
		logger:      logger,
	}, nil
}

func (s *SESEmailService) SendVerificationEmail(ctx context.Context, email, rawToken string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.baseURL, rawToken)

	textBody := fmt.Sprintf(`Welcome to Storefront!

Please confirm your email address by opening the link below:

%s

The link expires in 24 hours. If you did not create this account, you can
ignore this email.
`, link)

	htmlBody := fmt.Sprintf(`<p>Welcome to Storefront!</p>
<p>Please confirm your email address by clicking the link below:</p>
<p><a href="%s">Verify email address</a></p>
<p>The link expires in 24 hours. If you did not create this account, you can ignore this email.</p>`, link)

	return s.send(ctx, email, "Verify your email address", textBody, htmlBody)
}

func (s *SESEmailService) SendPasswordResetEmail(ctx context.Context, email, rawToken string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, rawToken)

	textBody := fmt.Sprintf(`A password reset was requested for your account.

Open the link below to choose a new password:

%s

The link expires in 1 hour. If you did not request a reset, no action is
needed; your password is unchanged.
`, link)

	htmlBody := fmt.Sprintf(`<p>A password reset was requested for your account.</p>
<p><a href="%s">Choose a new password</a></p>
<p>The link expires in 1 hour. If you did not request a reset, no action is needed; your password is unchanged.</p>`, link)

	return s.send(ctx, email, "Reset your password", textBody, htmlBody)
}

func (s *SESEmailService) send(ctx context.Context, email, subject, textBody, htmlBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(textBody)},
				Html: &types.Content{Data: aws.String(htmlBody)},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send email via SES",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.String("subject", subject),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		slog.String("email", pkglogger.SanitizedEmail(email)),
		slog.String("subject", subject),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}
