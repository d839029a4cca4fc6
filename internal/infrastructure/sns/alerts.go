package sns

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/invest-api/internal/config"
)

// AlertPublisher publishes operational alerts, used by the webhook path when
// an entitlement grant cannot be persisted and must be reconciled by hand.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, subject, message string) error
}

type publisher struct {
	client   *sns.Client
	topicARN string
}

func NewPublisher(cfg *config.Config) (AlertPublisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &publisher{client: sns.NewFromConfig(awsCfg), topicARN: cfg.SNSAlertTopicARN}, nil
}

func (p *publisher) PublishAlert(ctx context.Context, subject, message string) error {
	if p.topicARN == "" {
		return nil
	}
	_, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: &p.topicARN,
		Subject:  &subject,
		Message:  &message,
	})
	return err
}
