// Package models - Classifier artifacts and their output label tables.
package models

// CareSymbolClasses is the output label table of the care-symbol classifier.
//
// The position of each label is the class index produced by the model and
// must match the ordering used at training time. Reordering this slice
// silently corrupts every prediction.
var CareSymbolClasses = []string{
	"Cold Wash",
	"Cool Iron",
	"Do Not Bleach",
	"Do Not Dry Clean",
	"Do Not Iron",
	"Do Not Tumble Dry",
	"Do Not Wash",
	"Drip Dry",
	"Dry Clean Except Trichloroethylene",
	"Dry Flat",
	"Dry in the Shade",
	"Hand Wash",
	"Hang Dry",
	"Hot Iron",
	"Hot Wash",
	"Machine Wash",
	"Machine Wash: Gentle / Delicate",
	"Machine Wash: Permanent Press",
	"Non-Chlorine Bleach If Needed",
	"Normal Cycle Low Heat",
	"Normal Cycle Medium Heat",
	"Tumble Dry",
	"Warm Iron",
	"Warm Wash",
	"Warm/Hot Wash",
	"OK to Bleach",
	"Dry Clean: Any Solvent (A)",
	"Dry Clean: Petroleum Solvent Only",
	"Dry Clean",
	"Gentle Cycle Low Heat",
	"Gentle Cycle Medium Heat",
	"Gentle Cycle No Heat",
	"No Heat Dry",
	"Normal Cycle High Heat",
	"Permanent Press Low Heat",
	"Permanent Press Medium Heat",
	"Permanent Press No Heat",
	"No Steam",
	"Sanitize Wash",
}

// LookupName returns the label for a class index, or an empty string if
// the index is outside the table.
func LookupName(labels []string, idx int) string {
	if idx >= 0 && idx < len(labels) {
		return labels[idx]
	}
	return ""
}
