package view

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FilterRow is the raw state of one screener filter row. Bounds are kept as
// typed by the user; parsing belongs to the controller.
type FilterRow struct {
	Checked   bool   `json:"checked"`
	FieldName string `json:"fieldName"`
	MinValue  string `json:"minValue"`
	MaxValue  string `json:"maxValue"`
}

// ScreenerForm is the raw state of the screener form.
type ScreenerForm struct {
	Period string      `json:"period"`
	Rows   []FilterRow `json:"rows"`
}

// ReadScreenerForm extracts the form state from markup: the checked periodBtn
// radio, and every .form-check group holding a fieldName checkbox with its
// minValue and maxValue inputs.
func ReadScreenerForm(form *goquery.Selection) ScreenerForm {
	var out ScreenerForm

	form.Find(`input[name="periodBtn"]`).Each(func(_ int, radio *goquery.Selection) {
		if _, checked := radio.Attr("checked"); checked {
			out.Period = radio.AttrOr("value", "")
		}
	})

	form.Find(".form-check").Each(func(_ int, group *goquery.Selection) {
		box := group.Find(`input.form-check-input[name="fieldName"]`).First()
		if box.Length() == 0 {
			return
		}
		_, checked := box.Attr("checked")
		out.Rows = append(out.Rows, FilterRow{
			Checked:   checked,
			FieldName: strings.TrimSpace(box.AttrOr("value", "")),
			MinValue:  group.Find(`input.form-control[name="minValue"]`).First().AttrOr("value", ""),
			MaxValue:  group.Find(`input.form-control[name="maxValue"]`).First().AttrOr("value", ""),
		})
	})

	return out
}

// ReadScreenerForm reads the form bound to id from the page.
func (p *Page) ReadScreenerForm(id string) (ScreenerForm, error) {
	var out ScreenerForm
	err := p.Query(id, func(sel *goquery.Selection) {
		out = ReadScreenerForm(sel)
	})
	return out, err
}
