package domain

// Section identifies one mutually exclusive top-level view of the page.
type Section string

const (
	SectionMap     Section = "map"
	SectionWeather Section = "weather"
	SectionEvents  Section = "events"
	SectionAbout   Section = "about"
)

// DefaultSection is shown on page load.
const DefaultSection = SectionMap

// Sections lists every section in navigation order.
var Sections = []Section{SectionMap, SectionWeather, SectionEvents, SectionAbout}

// Valid reports whether s names a known section.
func (s Section) Valid() bool {
	for _, known := range Sections {
		if s == known {
			return true
		}
	}
	return false
}
