package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MediaType enumerates supported media outputs.
type MediaType string

const (
	MediaTypeText  MediaType = "text"
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
	MediaTypeAll   MediaType = "all"
)

var allowedAspectRatios = map[string]struct{}{
	"1:1":  {},
	"4:5":  {},
	"4:3":  {},
	"3:4":  {},
	"16:9": {},
	"9:16": {},
}

const (
	DefaultAspectRatio      = "1:1"
	DefaultVideoAspectRatio = "9:16"
	DefaultStyle            = "photographic"
	DefaultVideoDurationSec = 5
	MaxVideoDurationSec     = 60
)

// GenerateInput is the validated parameter set for a generation job.
type GenerateInput struct {
	Prompt      string    `json:"prompt"`
	MediaType   MediaType `json:"media_type"`
	Style       string    `json:"style,omitempty"`
	AspectRatio string    `json:"aspect_ratio,omitempty"`
	DurationSec int       `json:"duration_sec,omitempty"`
	Locale      string    `json:"locale,omitempty"`
}

// Normalize applies server defaults and clamps to supported ranges.
func (in *GenerateInput) Normalize() {
	in.Prompt = strings.TrimSpace(in.Prompt)
	if in.MediaType == "" {
		in.MediaType = MediaTypeImage
	}
	if in.Style == "" {
		in.Style = DefaultStyle
	}
	if in.AspectRatio == "" {
		if in.MediaType == MediaTypeVideo {
			in.AspectRatio = DefaultVideoAspectRatio
		} else {
			in.AspectRatio = DefaultAspectRatio
		}
	}
	if in.MediaType == MediaTypeVideo || in.MediaType == MediaTypeAll {
		if in.DurationSec <= 0 {
			in.DurationSec = DefaultVideoDurationSec
		}
		if in.DurationSec > MaxVideoDurationSec {
			in.DurationSec = MaxVideoDurationSec
		}
	}
}

// Validate reports an ErrInvalidInput wrap for any malformed field.
func (in *GenerateInput) Validate() error {
	if in.Prompt == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}
	switch in.MediaType {
	case MediaTypeText, MediaTypeImage, MediaTypeVideo, MediaTypeAll:
	default:
		return fmt.Errorf("%w: unsupported media type %q", ErrInvalidInput, in.MediaType)
	}
	if _, ok := allowedAspectRatios[in.AspectRatio]; !ok {
		return fmt.Errorf("%w: unsupported aspect ratio %q", ErrInvalidInput, in.AspectRatio)
	}
	return nil
}

// PublishInput is the validated parameter set for a publish job. MediaURL may
// be relative to the service's public base URL; the publish path resolves it.
type PublishInput struct {
	SourceJobID string     `json:"source_job_id"`
	IGUserID    string     `json:"ig_user_id"`
	MediaType   MediaType  `json:"media_type"`
	MediaURL    string     `json:"media_url"`
	Caption     string     `json:"caption"`
	Hashtags    []string   `json:"hashtags,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// Validate reports an ErrInvalidInput wrap for any malformed field.
func (in *PublishInput) Validate() error {
	if in.IGUserID == "" {
		return fmt.Errorf("%w: ig_user_id is required", ErrInvalidInput)
	}
	if in.MediaURL == "" {
		return fmt.Errorf("%w: media_url is required", ErrInvalidInput)
	}
	if in.MediaType != MediaTypeImage && in.MediaType != MediaTypeVideo {
		return fmt.Errorf("%w: publish media type must be image or video", ErrInvalidInput)
	}
	return nil
}

// FullCaption combines the caption and hashtag block the way posts are
// published: caption first, hashtags appended after a blank line.
func (in *PublishInput) FullCaption() string {
	caption := strings.TrimSpace(in.Caption)
	if len(in.Hashtags) == 0 {
		return caption
	}
	tags := strings.Join(in.Hashtags, " ")
	if caption == "" {
		return tags
	}
	return caption + "\n\n" + tags
}

// MustMarshal serializes v for storage in a job row. Inputs are plain structs;
// a marshal failure is a programming bug.
func MustMarshal(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
