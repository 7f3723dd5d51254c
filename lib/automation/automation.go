package automation

import "context"

// Escape key as understood by Press.
const KeyEscape = "\u001b"

// Control is a handle on a single interactive element, located by the
// selector it was created with. Methods re-resolve the selector on
// every call, so a control stays valid across re-renders of the page.
type Control interface {
	Click(ctx context.Context) error
	// reports whether the element exists and does not carry a
	// `disabled` attribute. an expired context is returned as an
	// error, callers decide whether that means "absent".
	Enabled(ctx context.Context) (bool, error)
}

// Browser is the UI-automation engine the pipeline drives. Selectors
// may be CSS or XPath. All blocking calls honor the deadline of the
// context they are given.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	Locate(selector string) Control
	WaitForSelector(ctx context.Context, selector string) error
	// waits until the document has finished loading and rendering
	// activity has settled.
	WaitForQuiescence(ctx context.Context) error
	// the full serialized document as currently rendered.
	HTML(ctx context.Context) (string, error)
	Evaluate(ctx context.Context, script string, out any) error
	Press(ctx context.Context, key string) error
	Screenshot(ctx context.Context, path string) error
	Close() error
}
