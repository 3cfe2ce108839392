package api

import (
	"errors"
	"strings"

	"Karion/internal/domain"
	xhttp "Karion/pkg/http"
)

// toAppError maps engine errors onto API errors. Anything unrecognised becomes a 500.
func toAppError(err error, symbol string) error {
	switch {
	case errors.Is(err, domain.ErrUnknownSymbol):
		return xhttp.UnknownSymbolError(symbol).WithError(err)
	case errors.Is(err, domain.ErrInvalidParameter):
		msg := strings.TrimPrefix(err.Error(), domain.ErrInvalidParameter.Error()+": ")
		return xhttp.InvalidParameterError(msg).WithError(err)
	default:
		return err
	}
}
