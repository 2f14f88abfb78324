package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsAPI is the subset of the Secrets Manager client used to resolve
// database credentials
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// NewSecretsClient builds a Secrets Manager client from the default AWS
// credential chain
func NewSecretsClient(ctx context.Context) (*secretsmanager.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

// DBSecret is the JSON document RDS stores for managed credentials
type DBSecret struct {
	Host     string `json:"host"`
	Port     DBPort `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Database string `json:"dbname"`
	SSLMode  string `json:"sslmode,omitempty"`
}

// DBPort accepts both 5432 and "5432"
type DBPort int

func (p *DBPort) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*p = DBPort(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("port must be a string or integer, got: %s", string(data))
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("port string %q is not a valid integer: %w", s, err)
	}
	*p = DBPort(n)
	return nil
}

// Config converts the secret into a validated connection config. SSL is
// required unless the secret says otherwise.
func (s DBSecret) Config() (*Config, error) {
	cfg := &Config{
		Host:     s.Host,
		Port:     strconv.Itoa(int(s.Port)),
		User:     s.Username,
		Password: s.Password,
		Database: s.Database,
		SSLMode:  s.SSLMode,
	}
	if s.Port == 0 {
		cfg.Port = ""
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database secret: %w", err)
	}
	return cfg, nil
}

// LoadConfigFromSecret resolves the delivery log connection settings from
// the secret named secretName
func LoadConfigFromSecret(ctx context.Context, api SecretsAPI, secretName string) (*Config, error) {
	if secretName == "" {
		return nil, errors.New("secret name is empty")
	}

	out, err := api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve secret %s: %w", secretName, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", secretName)
	}

	var secret DBSecret
	if err := json.Unmarshal([]byte(*out.SecretString), &secret); err != nil {
		return nil, fmt.Errorf("failed to parse secret %s: %w", secretName, err)
	}
	return secret.Config()
}
