// Package secrets reads provider credentials from AWS Secrets Manager.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/go-market-triggers/internal/config"
)

type getter interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Manager is a config.SecretSource over a single JSON secret whose keys
// match the provider environment variable names. The secret is fetched on
// every call, so a rotation is picked up by the next provider request.
type Manager struct {
	client   getter
	secretID string
}

// NewClient creates a Secrets Manager client. When cfg.AWSEndpointURL is set
// (LocalStack), it overrides the endpoint.
func NewClient(awsCfg aws.Config, cfg *config.Config) *secretsmanager.Client {
	return secretsmanager.NewFromConfig(awsCfg, func(o *secretsmanager.Options) {
		if cfg.AWSEndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		}
	})
}

func NewManager(client getter, secretID string) *Manager {
	return &Manager{client: client, secretID: secretID}
}

// Source returns the managed store when cfg names a secret and the process
// environment otherwise.
func Source(awsCfg aws.Config, cfg *config.Config) config.SecretSource {
	if cfg.SecretID == "" {
		return config.EnvSecrets{}
	}
	return NewManager(NewClient(awsCfg, cfg), cfg.SecretID)
}

func (m *Manager) Secrets(ctx context.Context) (config.Secrets, error) {
	out, err := m.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(m.secretID),
	})
	if err != nil {
		return config.Secrets{}, fmt.Errorf("get secret %s: %w", m.secretID, err)
	}
	var s config.Secrets
	if err := json.Unmarshal([]byte(aws.ToString(out.SecretString)), &s); err != nil {
		return config.Secrets{}, fmt.Errorf("decode secret %s: %w", m.secretID, err)
	}
	return s, nil
}
