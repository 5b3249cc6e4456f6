package quote

// DefaultCategory is used when a request names no category.
const DefaultCategory = "motivation"

// Category is a quote category with its display label.
type Category struct {
	Key   string `json:"value"`
	Label string `json:"label"`
}

// Categories lists the known categories in display order.
var Categories = []Category{
	{Key: "motivation", Label: "Motivation"},
	{Key: "success", Label: "Success"},
	{Key: "life", Label: "Life"},
	{Key: "wisdom", Label: "Wisdom"},
	{Key: "creativity", Label: "Creativity"},
	{Key: "perseverance", Label: "Perseverance"},
	{Key: "love", Label: "Love"},
	{Key: "inspiration", Label: "Inspiration"},
}

// IsKnownCategory reports whether key (already normalized) is a known category.
func IsKnownCategory(key string) bool {
	for _, c := range Categories {
		if c.Key == key {
			return true
		}
	}
	return false
}

// CategoryLabel returns the display label for key, or key itself if unknown.
func CategoryLabel(key string) string {
	for _, c := range Categories {
		if c.Key == key {
			return c.Label
		}
	}
	return key
}

// CategoryKeys returns the category keys in display order.
func CategoryKeys() []string {
	keys := make([]string, len(Categories))
	for i, c := range Categories {
		keys[i] = c.Key
	}
	return keys
}
