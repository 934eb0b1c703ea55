// Package nudenet - the 256x256 NudeNet body-part detector contract.
//
// The model emits NumBoxes candidate rows of AttributesPerBox floats laid out
// as [x1, y1, x2, y2, objectness, score_0 .. score_n-1] with coordinates in
// normalized image fractions.
package nudenet

const (
	// InputSize is the square input resolution of the reference export.
	InputSize = 256
	// NumBoxes is the number of candidate rows in the output tensor.
	NumBoxes = 1344
	// AttributesPerBox is the width of one candidate row.
	AttributesPerBox = 22
	// NumCategories is the number of category scores read from each row.
	NumCategories = 17
	// ConfidenceThreshold is the objectness a box must exceed.
	ConfidenceThreshold float32 = 0.5
	// CategoryThreshold is the maximum category score a box must exceed.
	CategoryThreshold float32 = 0.1
)

// Labels is the category table in model index order.
var Labels = []string{
	"FEMALE_GENITALIA_COVERED",
	"FACE_FEMALE",
	"BUTTOCKS_EXPOSED",
	"FEMALE_BREAST_EXPOSED",
	"FEMALE_GENITALIA_EXPOSED",
	"MALE_BREAST_EXPOSED",
	"ANUS_EXPOSED",
	"FEET_EXPOSED",
	"BELLY_COVERED",
	"FEET_COVERED",
	"ARMPITS_COVERED",
	"ARMPITS_EXPOSED",
	"FACE_MALE",
	"BELLY_EXPOSED",
	"MALE_GENITALIA_EXPOSED",
	"ANUS_COVERED",
	"FEMALE_BREAST_COVERED",
	"BUTTOCKS_COVERED",
}

// Label returns the label for a category index, or "" when out of range.
func Label(idx int) string {
	if idx < 0 || idx >= len(Labels) {
		return ""
	}
	return Labels[idx]
}
