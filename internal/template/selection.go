package template

import (
	"errors"

	"github.com/invoiceForge/composer-service/internal/models"
)

// ErrNoSelection is returned when font overrides arrive before a template
// was chosen
var ErrNoSelection = errors.New("no template selected")

// Select sets the active template and drops font overrides from the
// previous choice
func Select(sel *models.TemplateSelection, tpl *models.Template) {
	sel.Template = tpl
	sel.Fonts = nil
}

// ApplyFontOverrides merges non-zero font settings into the selection.
// Zero-valued fields keep whatever was set before.
func ApplyFontOverrides(sel *models.TemplateSelection, fonts models.FontSettings) error {
	if sel.Template == nil {
		return ErrNoSelection
	}
	if sel.Fonts == nil {
		sel.Fonts = &models.FontSettings{}
	}
	if fonts.HeaderFont != "" {
		sel.Fonts.HeaderFont = fonts.HeaderFont
	}
	if fonts.BodyFont != "" {
		sel.Fonts.BodyFont = fonts.BodyFont
	}
	if fonts.HeaderSize > 0 {
		sel.Fonts.HeaderSize = fonts.HeaderSize
	}
	if fonts.BodySize > 0 {
		sel.Fonts.BodySize = fonts.BodySize
	}
	if fonts.HeaderWeight != "" {
		sel.Fonts.HeaderWeight = fonts.HeaderWeight
	}
	if fonts.BodyWeight != "" {
		sel.Fonts.BodyWeight = fonts.BodyWeight
	}
	if fonts.LetterSpacing != 0 {
		sel.Fonts.LetterSpacing = fonts.LetterSpacing
	}
	if fonts.LineHeight > 0 {
		sel.Fonts.LineHeight = fonts.LineHeight
	}
	return nil
}

// Clear drops the template and all font overrides
func Clear(sel *models.TemplateSelection) {
	sel.Template = nil
	sel.Fonts = nil
}
