// Command lambda-http serves the docstore router (documents, users, activity,
// usage and forwarded logs) behind an API Gateway HTTP API.
//
//	GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"docstore-backend/internal/bootstrap"
	"docstore-backend/internal/shared/config"
	"docstore-backend/internal/shared/server/respond"
	"docstore-backend/internal/shared/telemetry"
)

// The app is built once per execution environment and reused across invocations.
var (
	initOnce sync.Once
	initErr  error
	proxy    *ginadapter.GinLambdaV2
)

func initApp() {
	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = fmt.Errorf("build docstore app: %w", err)
		return
	}
	telemetry.Info("lambda.cold_start", map[string]any{
		"env":          cfg.Env,
		"object_store": cfg.ObjectStoreType,
		"bucket":       cfg.S3Bucket,
	})
	proxy = ginadapter.NewV2(app.Router)
}

// unavailable answers with the same body shape the router uses for 500s.
func unavailable(err error) events.APIGatewayV2HTTPResponse {
	telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": err.Error()})
	body, _ := json.Marshal(respond.ErrorResponse{Message: "Interner Serverfehler", Code: respond.CodeInternal})
	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		return unavailable(initErr), nil
	}
	return proxy.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(handler)
}
