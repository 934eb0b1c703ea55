// Package model - Model options.
//
// See:
// https://onnxruntime.ai/docs/execution-providers/OpenVINO-ExecutionProvider.html#summary-of-options
package model

import (
	"strings"

	"github.com/pkg/errors"
)

// Precision represents the inference precision requested from an accelerator.
type Precision string

const (
	// PrecisionAccuracy keeps the precision the model was exported with.
	// (OpenVINO's default input precision type.)
	PrecisionAccuracy Precision = "ACCURACY"
	// PrecisionFP32 represents 32-bit floating point precision.
	PrecisionFP32 Precision = "FP32"
	// PrecisionFP16 represents 16-bit floating point precision.
	PrecisionFP16 Precision = "FP16"
	// PrecisionINT8 represents 8-bit integer precision.
	PrecisionINT8 Precision = "INT8"
)

// ParsePrecision parses a case-insensitive precision name. Empty means ACCURACY.
func ParsePrecision(s string) (Precision, error) {
	switch p := Precision(strings.ToUpper(strings.TrimSpace(s))); p {
	case "":
		return PrecisionAccuracy, nil
	case PrecisionAccuracy, PrecisionFP32, PrecisionFP16, PrecisionINT8:
		return p, nil
	default:
		return "", errors.Errorf("unknown precision %q", s)
	}
}
