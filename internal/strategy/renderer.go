package strategy

import "context"

// PageRenderer renders a URL in a real browser and returns the final DOM.
// It is the substitutable contract behind the last-resort rendered-page
// strategies; the production implementation drives headless Chrome.
type PageRenderer interface {
	Render(ctx context.Context, url string) (string, error)
}
