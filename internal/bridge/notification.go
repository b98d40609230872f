package bridge

import (
	apperrors "github.com/resbox/resbox-core/internal/errors"
)

// Glyphs from the Segoe MDL2 icon font used by the desktop shell.
const (
	GlyphError     = "\uE783"
	GlyphInfo      = "\uE946"
	GlyphContact   = "\uE77B"
	GlyphConnected = "\uE701"
	GlyphKey       = "\uE8D7"
)

// KindInfo marks notifications that do not report an error. Error
// notifications use the error category as their kind.
const KindInfo = "info"

type ImageState int

const (
	ImageUnloaded ImageState = iota
	ImageLoading
	ImageLoaded
)

func (s ImageState) String() string {
	switch s {
	case ImageLoading:
		return "loading"
	case ImageLoaded:
		return "loaded"
	default:
		return "unloaded"
	}
}

func (s ImageState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ImageCache reports the load state of remote images. Asking for an image
// that is not cached starts loading it.
type ImageCache interface {
	Get(url string) ImageState
}

// NotificationIcon is either a font glyph or a remote image.
type NotificationIcon struct {
	Glyph    string     `json:"glyph,omitempty"`
	ImageURL string     `json:"imageUrl,omitempty"`
	Image    ImageState `json:"image,omitempty"`
}

type Notification struct {
	Icon   NotificationIcon `json:"icon"`
	Title  string           `json:"title"`
	Detail string           `json:"detail"`
	Kind   string           `json:"kind"`
}

func infoNotification(glyph, title, detail string) Notification {
	return Notification{
		Icon:   NotificationIcon{Glyph: glyph},
		Title:  title,
		Detail: detail,
		Kind:   KindInfo,
	}
}

func errorNotification(title string, err error) Notification {
	return Notification{
		Icon:   NotificationIcon{Glyph: GlyphError},
		Title:  title,
		Detail: errorDetail(err),
		Kind:   string(apperrors.CategoryOf(apperrors.GetCode(err))),
	}
}

// errorDetail prefers the user-facing message of an AppError, followed by
// its cause when there is one.
func errorDetail(err error) string {
	if err == nil {
		return ""
	}
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		return err.Error()
	}
	if cause := appErr.Unwrap(); cause != nil {
		return appErr.Message + ": " + cause.Error()
	}
	return appErr.Message
}
