package httpserver

import (
	"errors"
	"net/http"

	"healthmall/internal/domain"
	"github.com/gin-gonic/gin"
)

// Stable machine-readable failure codes; clients branch on these, not on
// HTTP status or message text.
const (
	codeLoginRequired      = 40001
	codeCartLineNotFound   = 40002
	codeLocationRequired   = 40003
	codeEmptyCart          = 40004
	codeOrderNotFound      = 40005
	codePackageUnavailable = 40006
	codeInvalidQuantity    = 40007
	codeBadRequest         = 40008
	codeInvalidTransition  = 40009
	codeOrderCreation      = 50001
	codeInternal           = 50000
)

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func apiError(c *gin.Context, status, code int, message string) {
	c.JSON(status, errorBody{Code: code, Message: message})
}

// mapError translates a domain error into the response envelope. Unknown
// errors stay opaque to the client.
func mapError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrLoginRequired):
		apiError(c, http.StatusUnauthorized, codeLoginRequired, "login required")
	case errors.Is(err, domain.ErrCartLineNotFound):
		apiError(c, http.StatusNotFound, codeCartLineNotFound, "cart line not found")
	case errors.Is(err, domain.ErrLocationRequired):
		apiError(c, http.StatusBadRequest, codeLocationRequired, "set your location first")
	case errors.Is(err, domain.ErrEmptyCart):
		apiError(c, http.StatusBadRequest, codeEmptyCart, "cart is empty")
	case errors.Is(err, domain.ErrOrderNotFound):
		apiError(c, http.StatusNotFound, codeOrderNotFound, "order not found")
	case errors.Is(err, domain.ErrPackageUnavailable):
		apiError(c, http.StatusBadRequest, codePackageUnavailable, err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity):
		apiError(c, http.StatusBadRequest, codeInvalidQuantity, "quantity must be positive")
	case errors.Is(err, domain.ErrInvalidTransition):
		apiError(c, http.StatusConflict, codeInvalidTransition, err.Error())
	case errors.Is(err, domain.ErrOrderCreationFailed):
		apiError(c, http.StatusInternalServerError, codeOrderCreation, "order creation failed")
	default:
		apiError(c, http.StatusInternalServerError, codeInternal, "internal error")
	}
}
