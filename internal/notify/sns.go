package notify

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	apperrors "vc-readiness/internal/common/errors"
	"vc-readiness/internal/common/logger"
)

// SNSService is satisfied by *sns.Client.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes events as JSON to a topic.
type SNSNotifier struct {
	client   SNSService
	topicARN string
	logger   logger.Logger
}

func NewSNSNotifier(client SNSService, topicARN string, log logger.Logger) *SNSNotifier {
	return &SNSNotifier{
		client:   client,
		topicARN: topicARN,
		logger:   log.WithFields(map[string]interface{}{"component": "sns-notifier"}),
	}
}

func (n *SNSNotifier) Notify(ctx context.Context, event Event) error {
	subject, _, err := render(event)
	if err != nil {
		return apperrors.NewNotificationFailedError("sns", err)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return apperrors.NewNotificationFailedError("sns", err)
	}

	out, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {DataType: aws.String("String"), StringValue: aws.String(event.Type)},
		},
	})
	if err != nil {
		n.logger.Error("sns publish failed", map[string]interface{}{
			"error":        err,
			"evaluationId": event.EvaluationID,
		})
		return apperrors.NewNotificationFailedError("sns", err)
	}

	n.logger.Debug("event published", map[string]interface{}{
		"evaluationId": event.EvaluationID,
		"messageId":    aws.ToString(out.MessageId),
	})
	return nil
}
