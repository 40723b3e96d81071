package tui

// UI Layout Constants

const (
	// Fixed chrome around the body
	HeaderLines = 1 // Breadcrumb and title
	FooterLines = 1 // Key hints

	// Box borders and padding
	BoxBorderWidth   = 2 // Left + right border
	BoxPaddingWidth  = 2 // One column of padding on each side
	BoxOverheadWidth = BoxBorderWidth + BoxPaddingWidth

	// List layout
	SelectionMarkerWidth = 2 // "▌ " in front of the selected item

	// MinBodyHeight keeps something visible on tiny terminals
	MinBodyHeight = 3

	// HelpKeyColumn is the width of the key column in the help overlay
	HelpKeyColumn = 14
)
