package models

// Template describes one selectable invoice look. Catalog entries are
// fixed; generated templates get fresh IDs per business profile.
type Template struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Color       string   `json:"color"`
	BrandColor  string   `json:"brand_color"`
	Features    []string `json:"features"`
	Premium     bool     `json:"premium"`
	Corners     string   `json:"corners"`
	Style       string   `json:"style"`
}

// FontSettings overrides the typography of a selected template.
// Zero values mean "keep the template default".
type FontSettings struct {
	HeaderFont    string  `json:"header_font,omitempty"`
	BodyFont      string  `json:"body_font,omitempty"`
	HeaderSize    float64 `json:"header_size,omitempty"`
	BodySize      float64 `json:"body_size,omitempty"`
	HeaderWeight  string  `json:"header_weight,omitempty"`
	BodyWeight    string  `json:"body_weight,omitempty"`
	LetterSpacing float64 `json:"letter_spacing,omitempty"`
	LineHeight    float64 `json:"line_height,omitempty"`
}

// TemplateSelection is the active template of a draft session plus any
// font overrides. A nil Template means no selection.
type TemplateSelection struct {
	Template *Template     `json:"template,omitempty"`
	Fonts    *FontSettings `json:"fonts,omitempty"`
}
