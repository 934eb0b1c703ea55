// Package postprocess - Postprocessing utilities for models.
package postprocess

import "fmt"

// Detection represents a single decoded box together with its winning category.
type Detection struct {
	// The region of the detection.
	Region Region `json:"region"`
	// The predicted class index of the detection.
	Class int `json:"class"`
	// The label of the predicted class.
	Label string `json:"label"`
	// The score of the predicted class.
	ClassScore float32 `json:"class_score"`
}

// String formats the detection for logs.
func (d Detection) String() string {
	return fmt.Sprintf("%s (class score %.2f) %s", d.Label, d.ClassScore, d.Region)
}

// Regions projects detections onto their regions, preserving order.
func Regions(detections []Detection) []Region {
	regions := make([]Region, len(detections))
	for i, d := range detections {
		regions[i] = d.Region
	}
	return regions
}
