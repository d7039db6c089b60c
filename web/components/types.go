package components

// FormDefaults seeds the QR form with the server-side defaults.
type FormDefaults struct {
	Endpoint        string
	Data            string
	BlockSize       int
	Radius          float64
	ForegroundColor string
	BackgroundColor string
	AddImage        bool
	Image           string
	ImageSize       float64
	ImageMargin     int
	Level           string
	Format          string
	Style           PageStyle
}

// PageStyle lets operators restyle the page. Classes are merged over the
// built-in ones, so a conflicting utility replaces the default instead of
// stacking with it.
type PageStyle struct {
	Stylesheet  string
	BodyClass   string
	FormClass   string
	ButtonClass string
}
