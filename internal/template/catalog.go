package template

import (
	"errors"

	"github.com/invoiceForge/composer-service/internal/models"
)

// ErrTemplateNotFound is returned when neither the catalog nor the
// generated set knows the requested ID
var ErrTemplateNotFound = errors.New("template not found")

// defaultTemplates is the fixed catalog every user sees
var defaultTemplates = []models.Template{
	{
		ID:          "modern-blue",
		Name:        "Modern Blue",
		Category:    "professional",
		Description: "Clean and modern design with blue accent colors",
		Color:       "blue",
		BrandColor:  "#3B82F6",
		Features:    []string{"Modern Design", "Professional Layout", "Blue Theme"},
		Premium:     false,
		Corners:     "rounded",
		Style:       "modern",
	},
	{
		ID:          "creative-green",
		Name:        "Creative Green",
		Category:    "creative",
		Description: "Eye-catching design perfect for creative businesses",
		Color:       "green",
		BrandColor:  "#10B981",
		Features:    []string{"Creative Design", "Green Theme", "Eye-catching Layout"},
		Premium:     false,
		Corners:     "rounded",
		Style:       "creative",
	},
	{
		ID:          "professional-blue",
		Name:        "Professional Blue",
		Category:    "business",
		Description: "Traditional professional template for business use",
		Color:       "blue",
		BrandColor:  "#1E40AF",
		Features:    []string{"Professional", "Traditional Layout", "Business Focused"},
		Premium:     false,
		Corners:     "minimal",
		Style:       "professional",
	},
	{
		ID:          "elegant-purple",
		Name:        "Elegant Purple",
		Category:    "premium",
		Description: "Sophisticated design with purple accents",
		Color:       "purple",
		BrandColor:  "#8B5CF6",
		Features:    []string{"Elegant Design", "Purple Theme", "Sophisticated"},
		Premium:     true,
		Corners:     "rounded",
		Style:       "elegant",
	},
	{
		ID:          "minimal-gray",
		Name:        "Minimal Gray",
		Category:    "minimal",
		Description: "Clean minimal design with gray tones",
		Color:       "gray",
		BrandColor:  "#6B7280",
		Features:    []string{"Minimal Design", "Clean Layout", "Gray Theme"},
		Premium:     false,
		Corners:     "minimal",
		Style:       "minimal",
	},
	{
		ID:          "classic-black",
		Name:        "Classic Black",
		Category:    "classic",
		Description: "Timeless black and white professional design",
		Color:       "black",
		BrandColor:  "#111827",
		Features:    []string{"Classic Design", "Black & White", "Timeless"},
		Premium:     false,
		Corners:     "minimal",
		Style:       "classic",
	},
}

// DefaultTemplates returns a copy of the built-in catalog
func DefaultTemplates() []models.Template {
	out := make([]models.Template, len(defaultTemplates))
	copy(out, defaultTemplates)
	return out
}

// Lookup finds a catalog template by ID
func Lookup(id string) (*models.Template, error) {
	for i := range defaultTemplates {
		if defaultTemplates[i].ID == id {
			tpl := defaultTemplates[i]
			return &tpl, nil
		}
	}
	return nil, ErrTemplateNotFound
}
