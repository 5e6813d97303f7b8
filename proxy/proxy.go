// Package proxy validates panel requests and forwards them to the WhatsApp
// gateway, translating gateway outcomes into a uniform JSON body.
package proxy

import (
	"context"
	"errors"
	"net/http"

	"github.com/Abraxas-365/crmturbo/auth"
	"github.com/Abraxas-365/crmturbo/errx"
	"github.com/Abraxas-365/crmturbo/logx"
	"github.com/Abraxas-365/crmturbo/msgx"
)

// Result is the transport status and JSON body of one call
type Result struct {
	Status int
	Body   map[string]any
}

// InstanceBinder records who created an instance
type InstanceBinder interface {
	BindInstance(ctx context.Context, session auth.Session, instance string) error
}

type Service struct {
	gateway         msgx.Gateway
	verifier        auth.TokenVerifier
	binder          InstanceBinder
	defaultInstance string
	logger          *logx.Logger
}

type Option func(*Service)

// WithBinder binds instances to their creator after createInstance
func WithBinder(b InstanceBinder) Option {
	return func(s *Service) { s.binder = b }
}

func WithDefaultInstance(name string) Option {
	return func(s *Service) { s.defaultInstance = name }
}

func WithLogger(l *logx.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(gateway msgx.Gateway, verifier auth.TokenVerifier, opts ...Option) *Service {
	s := &Service{
		gateway:         gateway,
		verifier:        verifier,
		defaultInstance: msgx.DefaultInstance,
		logger:          logx.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle checks the body, then the caller, then forwards. A malformed body
// is an internal error (500); a bad action or instance is a 400.
func (s *Service) Handle(ctx context.Context, authorization string, body []byte) Result {
	cmd, err := msgx.ParseCommand(body, s.defaultInstance)
	if err != nil {
		if errx.IsCode(err, msgx.ErrInvalidJSON) {
			s.logger.Error("Proxy body is not JSON: %v", err)
			return failure(http.StatusInternalServerError, err)
		}
		s.logger.Warn("Proxy request rejected: %s", errx.Print(err))
		return failure(http.StatusBadRequest, err)
	}

	log := s.logger.With(logx.Fields{"action": cmd.Action, "instance": cmd.Instance})
	log.Info("Gateway action requested")

	session, err := auth.Authenticate(ctx, s.verifier, authorization)
	if err != nil {
		if errx.IsType(err, errx.TypeInternal) {
			log.Error("Authentication unavailable: %v", err)
			return failure(http.StatusInternalServerError, err)
		}
		log.Warn("Unauthorized proxy call: %v", err)
		return Result{Status: http.StatusUnauthorized, Body: map[string]any{"error": "Unauthorized", "success": false}}
	}

	resp, err := s.gateway.Execute(ctx, cmd)
	if err != nil {
		return s.gatewayFailure(log, err)
	}
	log.Info("Gateway answered %d", resp.Status)

	if cmd.Action == msgx.ActionCreateInstance && s.binder != nil {
		if err := s.binder.BindInstance(ctx, session, cmd.Instance); err != nil {
			log.Warn("Binding new instance failed: %v", err)
		}
	}
	return success(resp.Body)
}

func (s *Service) gatewayFailure(log *logx.Logger, err error) Result {
	var xerr *errx.Error
	if !errors.As(err, &xerr) {
		log.Error("Gateway call failed: %v", err)
		return failure(http.StatusInternalServerError, err)
	}

	switch xerr.Code {
	case msgx.ErrInstanceNotFound:
		log.Warn("Gateway instance not found")
		return Result{Status: http.StatusOK, Body: map[string]any{"error": "INSTANCE_NOT_FOUND", "success": false}}
	case msgx.ErrInstanceExists:
		log.Info("Gateway instance already exists")
		return Result{Status: http.StatusOK, Body: map[string]any{"error": "INSTANCE_EXISTS", "success": true}}
	case msgx.ErrGatewayAPI:
		log.Warn("Gateway error: %s", errx.Print(err))
		return Result{Status: http.StatusOK, Body: map[string]any{
			"error":   xerr.Message,
			"message": xerr.Details["message"],
			"data":    xerr.Details["data"],
			"success": false,
		}}
	}

	log.Error("Gateway call failed: %s", errx.Print(err))
	return failure(http.StatusInternalServerError, err)
}

func success(body any) Result {
	out := map[string]any{}
	if obj, ok := body.(map[string]any); ok {
		for k, v := range obj {
			out[k] = v
		}
	} else {
		out["data"] = body
	}
	out["success"] = true
	return Result{Status: http.StatusOK, Body: out}
}

func failure(status int, err error) Result {
	return Result{Status: status, Body: errx.Envelope(err)}
}
