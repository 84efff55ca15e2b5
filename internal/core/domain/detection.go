package domain

// Detection is a single machine-vision finding within an inspection frame.
type Detection struct {
	// ComponentName is the detected rail component (e.g. "rail", "FAST clip").
	ComponentName string `json:"cls_name"`

	// RailCategory is the rail line classification the component belongs to.
	RailCategory string `json:"rail_type"`

	// DefectDetail describes the detected defect state.
	DefectDetail string `json:"detail"`

	// Confidence is the detector confidence in [0, 1].
	Confidence float64 `json:"confidence"`

	// BoundingBox is the detection region as [x1, y1, x2, y2].
	BoundingBox [4]float64 `json:"bbox"`
}

// VisionResult is one structured detection record as produced by the
// vision model for a single inspection image.
type VisionResult struct {
	// AssetFile is the inspected image filename.
	AssetFile string `json:"image_file"`

	// IsAnomaly reports whether the frame was flagged as anomalous.
	IsAnomaly bool `json:"is_anomaly"`

	// Detections are the individual findings within the frame.
	Detections []Detection `json:"detections"`
}
