package intake

import (
	"errors"
	"fmt"

	"github.com/menta2k/sys2doc/pkg/types"
)

var (
	// ErrNoSource is returned when neither a file nor a URL was supplied
	ErrNoSource = errors.New("no image file or URL supplied")

	// ErrUnsupportedFormat is returned for uploads whose extension is not allowed
	ErrUnsupportedFormat = errors.New("unsupported file type")

	// ErrUnknownFormat is returned when the bytes are not a recognizable image
	ErrUnknownFormat = errors.New("cannot identify image file")

	// ErrTooManyPixels is returned when the declared dimensions exceed the
	// pixel limit
	ErrTooManyPixels = errors.New("image has too many pixels")

	// ErrMissingScheme is returned for URLs such as "example.com/img.png"
	ErrMissingScheme = errors.New("invalid URL: no scheme supplied")

	// ErrUnsupportedScheme is returned for URLs that are not http or https
	ErrUnsupportedScheme = errors.New("unsupported URL scheme (only http and https are supported)")

	// ErrUnreadableUpload is returned when a submitted file cannot be read
	ErrUnreadableUpload = errors.New("the uploaded file could not be read")

	// ErrTooLarge is returned when an upload or download exceeds the size limit
	ErrTooLarge = errors.New("image exceeds the size limit")
)

// DecodeError reports bytes that could not be decoded as an image, together
// with whatever is known about where they came from
type DecodeError struct {
	Details types.FileDetails
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Details.Name != "" {
		return fmt.Sprintf("%v %q", e.Err, e.Details.Name)
	}
	return e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// URLError reports a malformed image URL
type URLError struct {
	URL string
	Err error
}

func (e *URLError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.URL)
}

func (e *URLError) Unwrap() error { return e.Err }

// FetchError reports a well-formed URL that could not be downloaded
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to download image from %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
