package usecase

import (
	"fmt"

	"Karion/internal/domain"
)

func unknownSymbol(symbol string) error {
	return fmt.Errorf("%w: %s", domain.ErrUnknownSymbol, symbol)
}
