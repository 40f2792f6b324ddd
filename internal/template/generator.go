package template

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/invoiceForge/composer-service/internal/models"
)

// colorNames maps the brand color picker's hex values to the names the
// template system styles by. Unknown colors fall back to blue.
var colorNames = map[string]string{
	"#3B82F6": "blue",
	"#8B5CF6": "purple",
	"#10B981": "green",
	"#EF4444": "red",
	"#F59E0B": "orange",
	"#6366F1": "indigo",
	"#EC4899": "pink",
	"#14B8A6": "teal",
}

// GenerateFromProfile builds a custom branded template from a business
// profile. IDs are unique per call so regenerating never overwrites.
func GenerateFromProfile(profile *models.BusinessProfile) *models.Template {
	brandColor := profile.BrandColor
	if brandColor == "" {
		brandColor = "#3B82F6"
	}
	colorName, ok := colorNames[brandColor]
	if !ok {
		colorName = "blue"
	}

	companyName := profile.CompanyName
	if companyName == "" {
		companyName = "Custom"
	}

	features := []string{
		"Custom Branding",
		"Your Logo Included",
		"Brand Colors",
		"Business Information",
	}
	if profile.SignatureURL != "" {
		features = append(features, "Digital Signature")
	}

	return &models.Template{
		ID:          "custom-" + uuid.NewString(),
		Name:        companyName + " Business Template",
		Category:    "custom",
		Description: fmt.Sprintf("Custom template generated for %s with your branding", companyName),
		Color:       colorName,
		BrandColor:  brandColor,
		Features:    features,
		Premium:     false,
		Corners:     "minimal",
		Style:       "business",
	}
}
