package generation

// ImageInput is a caller-supplied reference image.
type ImageInput struct {
	DataBase64 string
	MimeType   string
}

// Request describes one synthesis attempt. The prompt wording is entirely
// the caller's; the client only moves it over the wire.
type Request struct {
	Prompt      string
	AspectRatio string
	Images      []ImageInput
}

// Artifact is the produced result: a data URL (inline payload) or a
// service-hosted URL, owned by the generation service.
type Artifact struct {
	URL  string
	Text string
}
