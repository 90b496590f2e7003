package reveal

// ScrollFlag turns on once the page has scrolled strictly past Offset.
type ScrollFlag struct {
	Offset float64
}

var (
	// NavbarShadow marks the navbar border once the page leaves the top.
	NavbarShadow = ScrollFlag{Offset: 50}
	// BackToTop shows the back-to-top button.
	BackToTop = ScrollFlag{Offset: 300}
)

// Active reports whether the flag is on at scroll position y.
func (f ScrollFlag) Active(y float64) bool {
	return y > f.Offset
}
