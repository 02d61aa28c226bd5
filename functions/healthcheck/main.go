// Command healthcheck is the Lambda behind the stack's health probe route.
// It reports whether the function can read the database secret it was wired
// with, so a deploy with broken secret plumbing fails its first probe instead
// of its first real query.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
)

// databaseEnvName matches the default env var the resolver derives for a
// database declaration.
const databaseEnvName = "DATABASE_URL"

type response struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

type handler struct {
	secrets secretsmanageriface.SecretsManagerAPI
}

// splitRef decomposes the injected secret reference: either a plain ARN or
// "<arn>:<jsonKey>::".
func splitRef(ref string) (arn, jsonKey string) {
	v := strings.TrimSuffix(ref, "::")
	if v == ref {
		return ref, ""
	}
	i := strings.LastIndex(v, ":")
	return v[:i], v[i+1:]
}

// checkDatabase fetches the secret and, when a JSON key is selected, verifies
// the key is present. The secret value itself never leaves the function.
func (h *handler) checkDatabase(ctx context.Context, ref string) error {
	arn, jsonKey := splitRef(ref)

	out, err := h.secrets.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(arn),
	})
	if err != nil {
		return fmt.Errorf("reading database secret: %w", err)
	}
	if jsonKey == "" {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(aws.StringValue(out.SecretString)), &fields); err != nil {
		return fmt.Errorf("database secret is not a JSON document: %w", err)
	}
	if _, ok := fields[jsonKey]; !ok {
		return fmt.Errorf("database secret has no %q key", jsonKey)
	}
	return nil
}

func (h *handler) handle(ctx context.Context, _ events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	resp := response{Status: "ok", Database: "not configured"}

	if ref := os.Getenv(databaseEnvName); ref != "" {
		if err := h.checkDatabase(ctx, ref); err != nil {
			body, _ := json.Marshal(response{Status: "degraded", Database: err.Error()})
			return events.LambdaFunctionURLResponse{
				StatusCode: 503,
				Headers:    map[string]string{"Content-Type": "application/json"},
				Body:       string(body),
			}, nil
		}
		resp.Database = "reachable"
	}

	body, _ := json.Marshal(resp)
	return events.LambdaFunctionURLResponse{
		StatusCode: 200,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}, nil
}

func main() {
	sess := session.Must(session.NewSession())
	h := &handler{secrets: secretsmanager.New(sess)}
	lambda.Start(h.handle)
}
