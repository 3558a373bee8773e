package report

// Config holds all configuration options for report rendering.
type Config struct {
	// TopN is the number of n-grams listed per modality.
	TopN int `json:"top_n"`

	// HistogramBins is the number of equal-width sentence-length bins.
	HistogramBins int `json:"histogram_bins"`

	// BarWidth is the width, in characters, of the longest bar.
	BarWidth int `json:"bar_width"`

	// TemplatePath optionally points at a template file that replaces the
	// built-in layout.
	TemplatePath string `json:"template_path"`
}

// DefaultConfig returns a Config with the default report layout.
func DefaultConfig() Config {
	return Config{
		TopN:          20,
		HistogramBins: 40,
		BarWidth:      40,
	}
}

// sanitize replaces out-of-range values with defaults.
func (c Config) sanitize() Config {
	d := DefaultConfig()
	if c.TopN <= 0 {
		c.TopN = d.TopN
	}
	if c.HistogramBins <= 0 {
		c.HistogramBins = d.HistogramBins
	}
	if c.BarWidth <= 0 {
		c.BarWidth = d.BarWidth
	}
	return c
}
