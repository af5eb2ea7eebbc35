package translate

import (
	"context"
)

// Adapter is an external translation service. Implementations may block;
// the Translator bounds every call with a deadline carried by ctx.
type Adapter interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// AdapterFunc lets a plain function serve as an Adapter.
type AdapterFunc func(ctx context.Context, text, targetLang string) (string, error)

func (f AdapterFunc) Translate(ctx context.Context, text, targetLang string) (string, error) {
	return f(ctx, text, targetLang)
}
