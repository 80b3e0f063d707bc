package constants

import "strings"

// ERPNext Item defaults applied during normalization.
const (
	DefaultItemGroup       = "All Item Groups"
	DefaultUOM             = "Nos"
	DefaultItemGroupParent = "All Item Groups"
)

// UnknownItemName is used when no name-like field survives normalization.
const UnknownItemName = "Unknown Item"

// wholeNumberUOMs are count-like units that cannot be fractional.
// A UOM created for one of these is flagged must_be_whole_number in ERPNext.
var wholeNumberUOMs = map[string]struct{}{
	"nos":  {},
	"unit": {},
	"each": {},
	"box":  {},
	"set":  {},
	"pair": {},
	"pcs":  {},
}

// IsWholeNumberUOM reports whether the unit name is count-like.
func IsWholeNumberUOM(name string) bool {
	_, ok := wholeNumberUOMs[strings.ToLower(strings.TrimSpace(name))]
	return ok
}
