package notify

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	apperrors "vc-readiness/internal/common/errors"
	"vc-readiness/internal/common/logger"
)

// SESService is satisfied by *ses.Client.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailNotifier mails a rendered summary of each event to fixed recipients.
type EmailNotifier struct {
	client     SESService
	from       string
	recipients []string
	logger     logger.Logger
}

func NewEmailNotifier(client SESService, from string, recipients []string, log logger.Logger) *EmailNotifier {
	return &EmailNotifier{
		client:     client,
		from:       from,
		recipients: recipients,
		logger:     log.WithFields(map[string]interface{}{"component": "email-notifier"}),
	}
}

func (n *EmailNotifier) Notify(ctx context.Context, event Event) error {
	if len(n.recipients) == 0 {
		return apperrors.NewNotificationFailedError("email", errors.New("no recipients configured"))
	}
	subject, body, err := render(event)
	if err != nil {
		return apperrors.NewNotificationFailedError("email", err)
	}

	_, err = n.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(n.from),
		Destination: &types.Destination{ToAddresses: n.recipients},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		n.logger.Error("email send failed", map[string]interface{}{
			"error":        err,
			"evaluationId": event.EvaluationID,
		})
		return apperrors.NewNotificationFailedError("email", err)
	}
	return nil
}
