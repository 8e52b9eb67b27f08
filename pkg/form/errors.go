package form

import "errors"

var (
	ErrUnknownField    = errors.New("form: unknown field")
	ErrUnknownVariant  = errors.New("form: unknown detail section")
	ErrAttachmentField = errors.New("form: field is an attachment")
	ErrIndexOutOfRange = errors.New("form: index out of range")
	ErrImageLimit      = errors.New("form: image limit reached")
	ErrImageTooLarge   = errors.New("form: image too large")
	ErrNoImageList     = errors.New("form: entity has no image list")
)
