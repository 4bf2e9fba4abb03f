package brackets

import (
	"context"
)

type GenerateBracketParams struct {
	Entrants []Entrant
	// Size is the number of first-round slots. Zero picks the smallest power
	// of two that fits the entrants.
	Size int
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) (Bracket, error)

	GetName() string
}
