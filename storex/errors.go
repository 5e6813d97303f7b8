package storex

import (
	"net/http"

	"github.com/Abraxas-365/crmturbo/errx"
)

var (
	storeErrors = errx.NewRegistry("STORE")

	ErrInvalidQuery     = storeErrors.Register("INVALID_QUERY", errx.TypeBadRequest, http.StatusBadRequest, "Invalid query")
	ErrRecordNotFound   = storeErrors.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Record not found")
	ErrConflict         = storeErrors.Register("CONFLICT", errx.TypeConflict, http.StatusConflict, "Record already exists")
	ErrConnectionFailed = storeErrors.Register("CONNECTION_FAILED", errx.TypeUnavailable, http.StatusServiceUnavailable, "Database connection failed")
	ErrTxFailed         = storeErrors.Register("TX_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Transaction failed")
	ErrQueryFailed      = storeErrors.Register("QUERY_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Query execution failed")
	ErrInvalidID        = storeErrors.Register("INVALID_ID", errx.TypeBadRequest, http.StatusBadRequest, "Invalid ID format")
	ErrUnknownDriver    = storeErrors.Register("UNKNOWN_DRIVER", errx.TypeInternal, http.StatusInternalServerError, "Unknown store driver")
)

// New builds a registered store error
func New(code errx.Code) *errx.Error {
	return storeErrors.New(code)
}

// Wrap builds a registered store error around cause
func Wrap(code errx.Code, cause error) *errx.Error {
	return storeErrors.NewWithCause(code, cause)
}

func IsRecordNotFound(err error) bool {
	return errx.IsCode(err, ErrRecordNotFound)
}

func IsConflict(err error) bool {
	return errx.IsCode(err, ErrConflict)
}

func IsConnectionFailed(err error) bool {
	return errx.IsCode(err, ErrConnectionFailed)
}
