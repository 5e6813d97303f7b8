package msgx

import (
	"net/http"

	"github.com/Abraxas-365/crmturbo/errx"
)

var (
	Registry = errx.NewRegistry("MSGX")

	ErrInvalidAction   = Registry.Register("INVALID_ACTION", errx.TypeValidation, http.StatusBadRequest, "Invalid or missing action")
	ErrInvalidInstance = Registry.Register("INVALID_INSTANCE", errx.TypeValidation, http.StatusBadRequest, "Invalid instance name format")
	ErrMissingField    = Registry.Register("MISSING_FIELD", errx.TypeValidation, http.StatusBadRequest, "Missing required field")

	ErrInvalidJSON      = Registry.Register("INVALID_JSON", errx.TypeValidation, http.StatusBadRequest, "Invalid JSON body")
	ErrMissingEvent     = Registry.Register("MISSING_EVENT", errx.TypeValidation, http.StatusBadRequest, "Missing or invalid event type")
	ErrNoMessage        = Registry.Register("NO_MESSAGE", errx.TypeValidation, http.StatusBadRequest, "No message data")
	ErrNoRemoteJID      = Registry.Register("NO_REMOTE_JID", errx.TypeValidation, http.StatusBadRequest, "No remoteJid")
	ErrInvalidRemoteJID = Registry.Register("INVALID_REMOTE_JID", errx.TypeValidation, http.StatusBadRequest, "Invalid remoteJid format")

	// Gateway outcomes. 404 and 409 are answered with 200 and a body flag.
	ErrInstanceNotFound = Registry.Register("INSTANCE_NOT_FOUND", errx.TypeNotFound, http.StatusOK, "INSTANCE_NOT_FOUND")
	ErrInstanceExists   = Registry.Register("INSTANCE_EXISTS", errx.TypeConflict, http.StatusOK, "INSTANCE_EXISTS")
	ErrGatewayAPI       = Registry.Register("GATEWAY_API_ERROR", errx.TypeExternal, http.StatusOK, "Gateway returned an error")
	ErrGatewayTransport = Registry.Register("GATEWAY_TRANSPORT", errx.TypeUnavailable, http.StatusInternalServerError, "Gateway request failed")
	ErrGatewayDecode    = Registry.Register("GATEWAY_DECODE", errx.TypeExternal, http.StatusInternalServerError, "Gateway returned an invalid body")
	ErrGatewayConfig    = Registry.Register("GATEWAY_CONFIG", errx.TypeInternal, http.StatusInternalServerError, "Gateway is not configured")
)
