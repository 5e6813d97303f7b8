package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Abraxas-365/crmturbo/webhook"
	"github.com/aws/aws-lambda-go/events"
)

// LambdaHandler serves the two function endpoints behind an API Gateway
// HTTP API. Routing is by path suffix so any stage prefix works.
func (s *Server) LambdaHandler() func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		if req.RequestContext.HTTP.Method == http.MethodOptions {
			return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusOK, Headers: corsHeaders(), Body: "ok"}, nil
		}

		body := []byte(req.Body)
		if req.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(req.Body)
			if err != nil {
				return lambdaJSON(http.StatusBadRequest, map[string]any{"error": "Invalid body encoding", "success": false})
			}
			body = decoded
		}

		path := strings.TrimRight(req.RawPath, "/")
		switch {
		case strings.HasSuffix(path, "/evolution-api"):
			res := s.deps.Proxy.Handle(ctx, header(req.Headers, "Authorization"), body)
			return lambdaJSON(res.Status, res.Body)
		case strings.HasSuffix(path, "/evolution-webhook"):
			res := s.deps.Webhook.Handle(ctx, header(req.Headers, webhook.SecretHeader), body)
			return lambdaJSON(res.Status, res.Body)
		}

		s.logger.Warn("Lambda route not found: %s %s", req.RequestContext.HTTP.Method, req.RawPath)
		return lambdaJSON(http.StatusNotFound, map[string]any{"error": "Not Found", "success": false})
	}
}

// header looks name up case-insensitively; API Gateway lowercases names
func header(headers map[string]string, name string) string {
	if v, ok := headers[strings.ToLower(name)]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func lambdaJSON(status int, body map[string]any) (events.APIGatewayV2HTTPResponse, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	headers := corsHeaders()
	headers["Content-Type"] = "application/json"
	return events.APIGatewayV2HTTPResponse{StatusCode: status, Headers: headers, Body: string(raw)}, nil
}
