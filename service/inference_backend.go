package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/lambda"
)

// InferenceBackend invokes the external AI inference function with a payload
// and reports its status and body. The backend reports results back
// asynchronously through the inference report endpoint; a successful
// invocation only means the request was accepted.
type InferenceBackend interface {
	Invoke(payload map[string]interface{}) (int, string, error)
}

// NewInferenceBackendFromEnv picks the backend mode: a Lambda function name
// for deployed environments, or a plain function URL for local development.
func NewInferenceBackendFromEnv(sess *session.Session) (InferenceBackend, error) {
	if functionName := os.Getenv("INFERENCE_FUNCTION_NAME"); functionName != "" {
		return &LambdaBackend{client: lambda.New(sess), functionName: functionName}, nil
	}
	if functionURL := os.Getenv("INFERENCE_FUNCTION_URL"); functionURL != "" {
		return &FunctionURLBackend{
			url:    functionURL,
			client: &http.Client{Timeout: 30 * time.Second},
		}, nil
	}
	return nil, fmt.Errorf("neither INFERENCE_FUNCTION_NAME nor INFERENCE_FUNCTION_URL is set")
}

// LambdaBackend invokes the inference function through the Lambda API.
type LambdaBackend struct {
	client       *lambda.Lambda
	functionName string
}

func (b *LambdaBackend) Invoke(payload map[string]interface{}) (int, string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, "", fmt.Errorf("failed to marshal inference payload: %w", err)
	}

	out, err := b.client.Invoke(&lambda.InvokeInput{
		FunctionName: aws.String(b.functionName),
		Payload:      body,
	})
	if err != nil {
		return 0, "", fmt.Errorf("lambda invocation failed: %w", err)
	}
	if out.FunctionError != nil {
		return 0, "", fmt.Errorf("lambda function error: %s", aws.StringValue(out.FunctionError))
	}
	return parseBackendResponse(out.Payload, int(aws.Int64Value(out.StatusCode)))
}

// FunctionURLBackend posts the payload to a local function URL. Used in
// development where the function runs in a container.
type FunctionURLBackend struct {
	url    string
	client *http.Client
}

func (b *FunctionURLBackend) Invoke(payload map[string]interface{}) (int, string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, "", fmt.Errorf("failed to marshal inference payload: %w", err)
	}

	resp, err := b.client.Post(b.url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[FunctionURLBackend] Error sending inference request: %v", err)
		return 0, "", fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read inference response: %w", err)
	}
	return parseBackendResponse(respBody, resp.StatusCode)
}

// parseBackendResponse unwraps the function's {statusCode, body} envelope,
// falling back to the transport status and raw body when the response is not
// an envelope.
func parseBackendResponse(raw []byte, transportStatus int) (int, string, error) {
	var envelope struct {
		StatusCode int             `json:"statusCode"`
		Body       json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.StatusCode != 0 {
		return envelope.StatusCode, string(envelope.Body), nil
	}
	return transportStatus, string(raw), nil
}
