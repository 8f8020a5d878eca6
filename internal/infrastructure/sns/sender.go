package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/go-market-triggers/internal/domain"
)

type publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// PushSender delivers mobile pushes through SNS platform endpoints. The
// user's push token is the endpoint ARN.
type PushSender struct {
	client publisher
}

func NewClient(awsCfg aws.Config, region string) *sns.Client {
	return sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if region != "" {
			o.Region = region
		}
	})
}

func NewPushSender(client publisher) *PushSender {
	return &PushSender{client: client}
}

func (s *PushSender) Send(ctx context.Context, endpointARN string, msg domain.PushMessage) error {
	payload, err := platformPayload(msg)
	if err != nil {
		return err
	}
	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TargetArn:        aws.String(endpointARN),
		Message:          aws.String(payload),
		MessageStructure: aws.String("json"),
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

// platformPayload renders the per-platform JSON SNS expects with
// MessageStructure=json. Each platform value is itself a JSON string.
func platformPayload(msg domain.PushMessage) (string, error) {
	gcm, err := json.Marshal(map[string]any{
		"notification": map[string]string{"title": msg.Title, "body": msg.Body},
		"data":         msg.Data,
	})
	if err != nil {
		return "", fmt.Errorf("encode gcm payload: %w", err)
	}
	aps := map[string]any{
		"aps": map[string]any{
			"alert": map[string]string{"title": msg.Title, "body": msg.Body},
			"sound": "default",
		},
	}
	for k, v := range msg.Data {
		aps[k] = v
	}
	apns, err := json.Marshal(aps)
	if err != nil {
		return "", fmt.Errorf("encode apns payload: %w", err)
	}
	out, err := json.Marshal(map[string]string{
		"default":      msg.Body,
		"GCM":          string(gcm),
		"APNS":         string(apns),
		"APNS_SANDBOX": string(apns),
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
