package core

// ContentPart represents a part of multimodal content in a message.
// Vision-capable chat models accept text and image parts.
type ContentPart interface {
	// ContentType returns the wire type identifier for this part.
	ContentType() string
}

// ImageDetail specifies the level of detail for image processing.
type ImageDetail string

const (
	ImageDetailAuto ImageDetail = "auto"
	ImageDetailLow  ImageDetail = "low"
	ImageDetailHigh ImageDetail = "high"
)

// InputText represents text content in a multimodal message.
type InputText struct {
	Text string
}

// ContentType returns "text".
func (InputText) ContentType() string {
	return "text"
}

// InputImage represents an image in a multimodal message.
type InputImage struct {
	// URL is an HTTPS URL or a data URL (data:image/png;base64,...).
	URL    string
	Detail ImageDetail
}

// ContentType returns "image_url".
func (InputImage) ContentType() string {
	return "image_url"
}
