package media

import (
	"context"
	"io"
)

// Uploader turns a staged image file into a permanently hosted URL. A failed
// upload returns an error and publishes nothing usable.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}
