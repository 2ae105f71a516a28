package models

// VideoMetadata holds the properties probed from a source video before
// any frame is sampled.
type VideoMetadata struct {
	DurationSec float64
	Width       int
	Height      int
}

// Frame is a single still image sampled from the source video. Index is
// 0-based and contiguous; frame i was captured at roughly second i.
type Frame struct {
	Index        int
	TimestampSec float64
	Path         string // JPEG file inside the run workspace
	Data         []byte // encoded JPEG payload, exactly as sampled
}

// Selection is one (frameIndex, reason) pair returned by the model.
type Selection struct {
	FrameIndex int    `json:"frameIndex"`
	Reason     string `json:"reason"`
}

// ResultRecord pairs a matched frame with the model's justification.
// Scene is the 1-based display position used for output file names.
type ResultRecord struct {
	Scene  int
	Frame  Frame
	Reason string
}
