package document

import "encoding/json"

// Defaults are the application-wide fallbacks for every stylable property
// and the initial values given to new items.
type Defaults struct {
	FontColor            string  `json:"font_color" toml:"font_color"`
	FontSize             int     `json:"font_size" toml:"font_size"`
	Padding              int     `json:"padding" toml:"padding"`
	HorizontalAlignment  string  `json:"horizontal_alignment" toml:"horizontal_alignment"`
	VerticalAlignment    string  `json:"vertical_alignment" toml:"vertical_alignment"`
	FillColor            string  `json:"fill_color" toml:"fill_color"`
	FillAlpha            float64 `json:"fill_alpha" toml:"fill_alpha"`
	Shape                string  `json:"shape" toml:"shape"`
	ShowOnHover          bool    `json:"show_on_hover" toml:"show_on_hover"`
	ShowOnHoverConnected bool    `json:"show_on_hover_connected" toml:"show_on_hover_connected"`
	AreaWidth            float64 `json:"area_width" toml:"area_width"`
	AreaHeight           float64 `json:"area_height" toml:"area_height"`
	LineColor            string  `json:"line_color" toml:"line_color"`
	Thickness            float64 `json:"thickness" toml:"thickness"`
	Opacity              float64 `json:"opacity" toml:"opacity"`
}

// BuiltinDefaults are used when neither the project nor the defaults file
// provides a value.
func BuiltinDefaults() Defaults {
	return Defaults{
		FontColor:            "#000000",
		FontSize:             14,
		Padding:              5,
		HorizontalAlignment:  AlignLeft,
		VerticalAlignment:    AlignTop,
		FillColor:            "#FFFFFF",
		FillAlpha:            0.8,
		Shape:                ShapeRectangle,
		ShowOnHover:          true,
		ShowOnHoverConnected: false,
		AreaWidth:            100,
		AreaHeight:           50,
		LineColor:            "#000000",
		Thickness:            2,
		Opacity:              1,
	}
}

// UnmarshalJSON backfills keys missing from the saved block.
func (d *Defaults) UnmarshalJSON(data []byte) error {
	type plain Defaults
	v := plain(BuiltinDefaults())
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*d = Defaults(v)
	return nil
}
