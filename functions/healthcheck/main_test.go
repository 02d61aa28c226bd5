package main

import (
	"context"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets struct {
	secretsmanageriface.SecretsManagerAPI
	value string
	err   error
}

func (f *fakeSecrets) GetSecretValueWithContext(_ aws.Context, _ *secretsmanager.GetSecretValueInput, _ ...request.Option) (*secretsmanager.GetSecretValueOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(f.value)}, nil
}

const testArn = "arn:aws:secretsmanager:us-west-2:111:secret:db-AbCdEf"

func TestSplitRef(t *testing.T) {
	arn, key := splitRef(testArn + ":DATABASE_URL_ACTIVE::")
	assert.Equal(t, testArn, arn)
	assert.Equal(t, "DATABASE_URL_ACTIVE", key)

	arn, key = splitRef(testArn)
	assert.Equal(t, testArn, arn)
	assert.Empty(t, key)
}

func TestCheckDatabase_JSONKeyPresent(t *testing.T) {
	h := &handler{secrets: &fakeSecrets{value: `{"DATABASE_URL_ACTIVE":"postgres://..."}`}}
	err := h.checkDatabase(context.Background(), testArn+":DATABASE_URL_ACTIVE::")
	require.NoError(t, err)
}

func TestCheckDatabase_JSONKeyMissing(t *testing.T) {
	h := &handler{secrets: &fakeSecrets{value: `{"OTHER":"x"}`}}
	err := h.checkDatabase(context.Background(), testArn+":DATABASE_URL_ACTIVE::")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no \"DATABASE_URL_ACTIVE\" key")
}

func TestHandle_NoDatabaseConfigured(t *testing.T) {
	t.Setenv(databaseEnvName, "")

	h := &handler{secrets: &fakeSecrets{}}
	resp, err := h.handle(context.Background(), events.LambdaFunctionURLRequest{})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, resp.Body, `"database":"not configured"`)
}

func TestHandle_DegradedOnSecretError(t *testing.T) {
	t.Setenv(databaseEnvName, testArn)

	h := &handler{secrets: &fakeSecrets{err: assert.AnError}}
	resp, err := h.handle(context.Background(), events.LambdaFunctionURLRequest{})
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
	assert.Contains(t, resp.Body, `"status":"degraded"`)
}
