package translate

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/net/html"
	"google.golang.org/api/option"
	gtranslate "google.golang.org/api/translate/v2"
)

// ErrNoCredentials is returned by GoogleAdapterFromEnv when neither an API
// key nor a credentials file is configured.
var ErrNoCredentials = errors.New("no Google Cloud Translation credentials configured")

// GoogleAdapter translates through the Cloud Translation v2 API.
type GoogleAdapter struct {
	svc    *gtranslate.Service
	source string
}

// NewGoogleAdapter creates an adapter from explicit client options.
func NewGoogleAdapter(ctx context.Context, opts ...option.ClientOption) (*GoogleAdapter, error) {
	svc, err := gtranslate.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Translation client: %w", err)
	}
	return &GoogleAdapter{svc: svc, source: "en"}, nil
}

// GoogleAdapterFromEnv uses GOOGLE_TRANSLATE_API_KEY, or the service account
// file named by GOOGLE_APPLICATION_CREDENTIALS.
func GoogleAdapterFromEnv(ctx context.Context) (*GoogleAdapter, error) {
	if key := os.Getenv("GOOGLE_TRANSLATE_API_KEY"); key != "" {
		return NewGoogleAdapter(ctx, option.WithAPIKey(key))
	}
	if file := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); file != "" {
		return NewGoogleAdapter(ctx, option.WithCredentialsFile(file))
	}
	return nil, ErrNoCredentials
}

// Translate implements Adapter.
func (g *GoogleAdapter) Translate(ctx context.Context, text, targetLang string) (string, error) {
	resp, err := g.svc.Translations.List([]string{text}, targetLang).
		Format("text").
		Source(g.source).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to translate: %w", err)
	}
	return firstTranslation(resp)
}

func firstTranslation(resp *gtranslate.TranslationsListResponse) (string, error) {
	if resp == nil || len(resp.Translations) == 0 || resp.Translations[0] == nil {
		return "", ErrEmptyResult
	}
	// the API escapes entities even in text format
	return html.UnescapeString(resp.Translations[0].TranslatedText), nil
}
