package server_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Abraxas-365/crmturbo/auth"
	"github.com/Abraxas-365/crmturbo/conversation"
	"github.com/Abraxas-365/crmturbo/conversation/memstore"
	"github.com/Abraxas-365/crmturbo/msgx/providers/msgxevolution"
	"github.com/Abraxas-365/crmturbo/msgx/providers/msgxevolution/evolutiontest"
	"github.com/Abraxas-365/crmturbo/proxy"
	"github.com/Abraxas-365/crmturbo/server"
	"github.com/Abraxas-365/crmturbo/webhook"
	"github.com/aws/aws-lambda-go/events"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jwtSecret = "test-secret"

type fixture struct {
	srv *server.Server
	gw  *evolutiontest.Gateway
}

func setup(t *testing.T) fixture {
	t.Helper()
	gw := evolutiontest.New("key")
	t.Cleanup(gw.Close)

	verifier := auth.NewJWTVerifier(jwtSecret, "")
	convs := conversation.NewService(memstore.New())
	client := msgxevolution.NewClient(msgxevolution.Config{BaseURL: gw.URL, APIKey: "key"})

	srv := server.New(server.Deps{
		Proxy:         proxy.NewService(client, verifier, proxy.WithBinder(convs)),
		Webhook:       webhook.NewHandler(convs, webhook.WithSecret("hook")),
		Conversations: convs,
		Verifier:      verifier,
	})
	return fixture{srv: srv, gw: gw}
}

func token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	tok, err := auth.NewJWTVerifier(jwtSecret, "").SignToken(auth.JWTClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	require.NoError(t, err)
	return tok
}

func (f fixture) do(t *testing.T, method, path, bearer string, headers map[string]string, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.srv.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestPreflight(t *testing.T) {
	f := setup(t)
	for _, path := range []string{server.ProxyPath, server.WebhookPath, "/anything"} {
		resp, err := f.srv.App().Test(httptest.NewRequest(http.MethodOptions, path, nil))
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok", string(body))
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, server.AllowHeaders, resp.Header.Get("Access-Control-Allow-Headers"))
	}
}

func TestProxyRoute(t *testing.T) {
	f := setup(t)
	user := uuid.New()

	status, body := f.do(t, http.MethodPost, server.ProxyPath, "", nil, `{"action":"getQrCode","instanceName":"crm-turbo"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])

	status, body = f.do(t, http.MethodPost, server.ProxyPath, token(t, user), nil, `{"action":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid or missing action", body["error"])

	f.gw.Reply("/instance/connect", evolutiontest.Reply{Status: http.StatusNotFound})
	status, body = f.do(t, http.MethodPost, server.ProxyPath, token(t, user), nil, `{"action":"getQrCode","instanceName":"crm-turbo"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"error": "INSTANCE_NOT_FOUND", "success": false}, body)
}

func TestWebhookToConversationAPI(t *testing.T) {
	f := setup(t)
	user := uuid.New()
	tok := token(t, user)

	status, _ := f.do(t, http.MethodPost, "/api/instances/crm-turbo", tok, nil, "")
	require.Equal(t, http.StatusOK, status)

	event := `{"event":"messages.upsert","instance":"crm-turbo","data":{"messages":[{"key":{"remoteJid":"5511999@s.whatsapp.net","fromMe":false},"pushName":"Ana","message":{"conversation":"Oi"}}]}}`

	status, _ = f.do(t, http.MethodPost, server.WebhookPath, "", nil, event)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := f.do(t, http.MethodPost, server.WebhookPath, "", map[string]string{webhook.SecretHeader: "hook"}, event)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	status, body = f.do(t, http.MethodGet, "/api/conversations", tok, nil, "")
	require.Equal(t, http.StatusOK, status)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	conv := data[0].(map[string]any)
	assert.Equal(t, float64(1), conv["unread_count"])
	assert.Equal(t, "Oi", conv["last_message"])

	status, body = f.do(t, http.MethodPost, "/api/conversations/"+conv["id"].(string)+"/open", tok, nil, "")
	require.Equal(t, http.StatusOK, status)
	opened := body["data"].(map[string]any)
	assert.Equal(t, true, opened["is_open"])
	assert.Equal(t, float64(0), opened["unread_count"])

	status, _ = f.do(t, http.MethodPost, "/api/conversations/"+conv["id"].(string)+"/open", token(t, uuid.New()), nil, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = f.do(t, http.MethodPost, "/api/conversations/nope/close", tok, nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
}

func TestPanelRoutes(t *testing.T) {
	f := setup(t)
	tok := token(t, uuid.New())

	status, body := f.do(t, http.MethodPost, "/api/conversations", tok, nil, `{"contact_phone":"+55 11 99999-0000","contact_name":"Ana"}`)
	require.Equal(t, http.StatusCreated, status)
	conv := body["data"].(map[string]any)
	assert.Equal(t, "5511999990000@s.whatsapp.net", conv["remote_jid"])
	assert.Equal(t, "crm-turbo", conv["instance_name"])
	id := conv["id"].(string)

	status, body = f.do(t, http.MethodPost, "/api/conversations", tok, nil, `{"contact_phone":"5511999990000"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, string(conversation.ErrExists), body["code"])

	status, _ = f.do(t, http.MethodPost, "/api/conversations", tok, nil, `{"contact_phone":"123"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = f.do(t, http.MethodPost, "/api/conversations", tok, nil, `{"contact_phone":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid JSON body", body["error"])

	for _, text := range []string{"um", "dois"} {
		status, body = f.do(t, http.MethodPost, "/api/conversations/"+id+"/messages", tok, nil, `{"text":"`+text+`"}`)
		require.Equal(t, http.StatusCreated, status)
		assert.Equal(t, true, body["data"].(map[string]any)["is_from_user"])
	}

	status, body = f.do(t, http.MethodPost, "/api/conversations/"+id+"/messages", tok, nil, `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = f.do(t, http.MethodGet, "/api/conversations/"+id+"/messages?page_size=1", tok, nil, "")
	require.Equal(t, http.StatusOK, status)
	msgs := body["data"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "um", msgs[0].(map[string]any)["message_text"])
	pagination := body["pagination"].(map[string]any)
	assert.Equal(t, true, pagination["has_next"])
	assert.Equal(t, false, pagination["has_previous"])

	status, _ = f.do(t, http.MethodGet, "/api/conversations/"+id+"/messages", token(t, uuid.New()), nil, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = f.do(t, http.MethodGet, "/api/conversations", tok, nil, "")
	require.Equal(t, http.StatusOK, status)
	listed := body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "dois", listed["last_message"])
	assert.Equal(t, float64(0), listed["unread_count"])

	status, body = f.do(t, http.MethodPost, "/api/templates", tok, nil, `{"title":"Saudação","content":"Olá!"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Nil(t, body["data"].(map[string]any)["category"])

	status, _ = f.do(t, http.MethodPost, "/api/templates", tok, nil, `{"title":"Sem conteúdo"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = f.do(t, http.MethodGet, "/api/templates", tok, nil, "")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body["data"], 1)

	status, body = f.do(t, http.MethodGet, "/api/templates", token(t, uuid.New()), nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["empty"])
}

func TestBindInstanceRoute(t *testing.T) {
	f := setup(t)

	status, _ := f.do(t, http.MethodPost, "/api/instances/loja", token(t, uuid.New()), nil, "")
	require.Equal(t, http.StatusOK, status)

	status, body := f.do(t, http.MethodPost, "/api/instances/loja", token(t, uuid.New()), nil, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, false, body["success"])

	status, _ = f.do(t, http.MethodPost, "/api/instances/bad%20name", token(t, uuid.New()), nil, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = f.do(t, http.MethodGet, "/api/conversations", "garbage", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestHealthAndDocs(t *testing.T) {
	f := setup(t)

	status, body := f.do(t, http.MethodGet, "/health", "", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	status, body = f.do(t, http.MethodGet, "/docs", "", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["routers"], 3)
}

func TestRecover(t *testing.T) {
	f := setup(t)
	f.srv.App().Get("/boom", func(*fiber.Ctx) error { panic("boom") })

	status, body := f.do(t, http.MethodGet, "/boom", "", nil, "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, false, body["success"])
}

func TestLambdaHandler(t *testing.T) {
	f := setup(t)
	handle := f.srv.LambdaHandler()
	user := uuid.New()

	req := events.APIGatewayV2HTTPRequest{RawPath: "/prod/evolution-api", Body: `{"action":"fetchInstances","instanceName":"crm-turbo"}`}
	req.RequestContext.HTTP.Method = http.MethodPost
	req.Headers = map[string]string{"authorization": "Bearer " + token(t, user)}

	resp, err := handle(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	assert.Contains(t, resp.Body, `"success":true`)

	hook := events.APIGatewayV2HTTPRequest{RawPath: "/evolution-webhook/", Body: `{"event":"connection.update"}`}
	hook.RequestContext.HTTP.Method = http.MethodPost
	hook.Headers = map[string]string{"x-webhook-secret": "hook"}
	resp, err = handle(context.Background(), hook)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	encoded := events.APIGatewayV2HTTPRequest{RawPath: "/evolution-webhook", IsBase64Encoded: true, Body: base64.StdEncoding.EncodeToString([]byte("{"))}
	encoded.RequestContext.HTTP.Method = http.MethodPost
	encoded.Headers = map[string]string{"X-Webhook-Secret": "hook"}
	resp, err = handle(context.Background(), encoded)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	encoded.Body = "%%%"
	resp, err = handle(context.Background(), encoded)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, resp.Body, "Invalid body encoding")

	pre := events.APIGatewayV2HTTPRequest{RawPath: "/evolution-api"}
	pre.RequestContext.HTTP.Method = http.MethodOptions
	resp, err = handle(context.Background(), pre)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Body)

	missing := events.APIGatewayV2HTTPRequest{RawPath: "/other"}
	missing.RequestContext.HTTP.Method = http.MethodGet
	resp, err = handle(context.Background(), missing)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
