package secrets

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// secretsManagerAPI is the slice of the Secrets Manager client used here,
// extracted so tests can substitute a fake.
type secretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerStore fetches secrets from AWS Secrets Manager using the
// default credential chain.
type SecretsManagerStore struct {
	client secretsManagerAPI
}

func NewSecretsManagerStore(ctx context.Context) (*SecretsManagerStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("aws config load error: %w", err)
	}
	return &SecretsManagerStore{client: secretsmanager.NewFromConfig(cfg)}, nil
}

func (s *SecretsManagerStore) GetSecret(ctx context.Context, name string) (string, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("secrets manager get %q: %w", name, err)
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return "", fmt.Errorf("secrets manager get %q: %w", name, ErrSecretNotFound)
	}
	return *out.SecretString, nil
}
