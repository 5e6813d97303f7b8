/*
Package errx is the error model shared by the service.

Each package owns a Registry with a code prefix and registers its errors once:

	var (
		proxyErrors       = errx.NewRegistry("PROXY")
		ErrInvalidAction  = proxyErrors.Register("INVALID_ACTION", errx.TypeValidation, http.StatusBadRequest, "Invalid or missing action")
	)

	return proxyErrors.New(ErrInvalidAction).WithDetail("action", req.Action)

Errors compare by code with errors.Is and IsCode. HTTP adapters render them
with Envelope / ToFiber as {"success": false, "error": ..., "code": ...}.
*/
package errx
