package domain

// GeneratedContent is the text payload produced for a post. It is immutable
// once created and owned by the job that produced it.
type GeneratedContent struct {
	Hook                   string   `json:"hook"`
	Captions               []string `json:"captions"`
	Hashtags               []string `json:"hashtags"`
	AltText                string   `json:"alt_text"`
	RecommendedAspectRatio string   `json:"recommended_aspect_ratio"`
}

// PrimaryCaption returns the first caption variant, falling back to the hook.
func (c *GeneratedContent) PrimaryCaption() string {
	if len(c.Captions) > 0 {
		return c.Captions[0]
	}
	return c.Hook
}

// GenerationResult is the payload persisted on a completed generation job.
type GenerationResult struct {
	Content *GeneratedContent `json:"content,omitempty"`
	Media   *MediaRef         `json:"media,omitempty"`
}

// MediaRef points at a stored artifact without copying it.
type MediaRef struct {
	AssetID     string `json:"asset_id"`
	URL         string `json:"url"`
	MIME        string `json:"mime"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	DurationSec int    `json:"duration_sec,omitempty"`
}

// PublishResult is the payload persisted on a completed publish job.
type PublishResult struct {
	PostID      string `json:"post_id"`
	ContainerID string `json:"container_id,omitempty"`
}
