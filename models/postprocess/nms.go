// Package postprocess - provides Non-Maximum Suppression for detection results.
package postprocess

import "sort"

// NMSConfig defines parameters for Non-Maximum Suppression.
type NMSConfig struct {
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"` // Overlap threshold for suppression.
	ClassAware   bool    `json:"class_aware" yaml:"class_aware"`     // If true, suppress only within same class.
}

// ApplyGreedyNMS performs standard greedy Non-Maximum Suppression.
//
// Detections are visited by descending confidence; ties keep their decode
// order. Each kept detection suppresses every later one whose IoU exceeds
// the threshold. The input slice is not modified.
//
// Arguments:
//   - detections: Detections in decode order.
//   - config: NMS configuration. A nil config returns the detections unchanged.
//
// Returns:
//   - Filtered slice of detections, highest confidence first. If no
//     detections are provided, returns nil.
func ApplyGreedyNMS(detections []Detection, config *NMSConfig) []Detection {
	n := len(detections)
	if n == 0 {
		return nil
	}
	if config == nil {
		return detections
	}

	sorted := make([]Detection, n)
	copy(sorted, detections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Region.Confidence > sorted[j].Region.Confidence
	})

	filtered := make([]Detection, 0, n)
	used := make([]bool, n)

	for i := 0; i < n; i++ {
		if used[i] {
			continue
		}

		anchor := sorted[i]
		filtered = append(filtered, anchor)
		used[i] = true

		for j := i + 1; j < n; j++ {
			if used[j] {
				continue
			}
			if config.ClassAware && anchor.Class != sorted[j].Class {
				continue
			}
			if anchor.Region.IoU(sorted[j].Region) > config.IoUThreshold {
				used[j] = true
			}
		}
	}

	return filtered
}
