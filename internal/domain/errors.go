package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// Validation failures are handled locally and never reach the model.
	ErrInvalidImageFile = errors.New("please select a valid image file")
	ErrMissingInput     = errors.New("please upload an image and enter a prompt")
	ErrUploadTooLarge   = errors.New("the selected image is too large")

	ErrNoImageInResponse = errors.New("no image data found in response")
	ErrRemoteCall        = errors.New("image generation failed")
	ErrUnexpected        = errors.New("an unexpected error occurred while generating the image")
)

// IsValidation reports whether err is one of the local input validation failures.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidImageFile) ||
		errors.Is(err, ErrMissingInput) ||
		errors.Is(err, ErrUploadTooLarge)
}
