package models

// Accent color of every outbound embed.
const AccentColor = 0xDB5172

// Fields the outbound notifier needs to render one post.
type Payload struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Color       int           `json:"color"`
	Image       *PayloadImage `json:"image,omitempty"`
}

type PayloadImage struct {
	URL string `json:"url"`
}
