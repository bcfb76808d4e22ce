package types

import "strings"

// ColorMode names the pixel layout of a decoded bitmap
type ColorMode string

const (
	ModeRGB     ColorMode = "RGB"
	ModeRGBA    ColorMode = "RGBA"
	ModePalette ColorMode = "P"
	ModeGray    ColorMode = "L"
	ModeGray16  ColorMode = "I;16"
	ModeCMYK    ColorMode = "CMYK"
	ModeYCbCr   ColorMode = "YCbCr"
	ModeYCbCrA  ColorMode = "YCbCrA"
	ModeUnknown ColorMode = "unknown"
)

// FileDetails describes where an image came from
type FileDetails struct {
	Name string `json:"file_name"`
	Type string `json:"file_type"`
	Size int64  `json:"file_size"`
}

// GenerationConfig holds the sampling parameters sent with every request
type GenerationConfig struct {
	Temperature      float32 `json:"temperature"`
	TopP             float32 `json:"top_p"`
	TopK             int32   `json:"top_k"`
	MaxOutputTokens  int32   `json:"max_output_tokens"`
	ResponseMIMEType string  `json:"response_mime_type"`
}

// HarmCategory is a content-safety category understood by the remote service
type HarmCategory string

const (
	HarmHarassment       HarmCategory = "HARM_CATEGORY_HARASSMENT"
	HarmHateSpeech       HarmCategory = "HARM_CATEGORY_HATE_SPEECH"
	HarmSexuallyExplicit HarmCategory = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
	HarmDangerousContent HarmCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
)

// BlockThreshold is the severity at which generation is withheld
type BlockThreshold string

const (
	BlockNone           BlockThreshold = "BLOCK_NONE"
	BlockOnlyHigh       BlockThreshold = "BLOCK_ONLY_HIGH"
	BlockMediumAndAbove BlockThreshold = "BLOCK_MEDIUM_AND_ABOVE"
	BlockLowAndAbove    BlockThreshold = "BLOCK_LOW_AND_ABOVE"
)

// SafetySetting pairs a harm category with its block threshold
type SafetySetting struct {
	Category  HarmCategory   `json:"category"`
	Threshold BlockThreshold `json:"threshold"`
}

// DescriptionRequest is everything a backend needs for one description
type DescriptionRequest struct {
	Prompt     string           `json:"prompt"`
	Image      []byte           `json:"-"`
	MIMEType   string           `json:"mime_type"`
	Generation GenerationConfig `json:"generation"`
	Safety     []SafetySetting  `json:"safety"`
}

// ImageFormat returns the subtype of the request MIME type, e.g. "png"
func (r *DescriptionRequest) ImageFormat() string {
	if i := strings.LastIndex(r.MIMEType, "/"); i >= 0 {
		return r.MIMEType[i+1:]
	}
	return r.MIMEType
}
