package mqtt

// Topic constants for camcore.
//
// The hierarchy is flat: camcore/{category}/{subject}.
const (
	// TopicPrefix is the base for all camcore topics.
	TopicPrefix = "camcore"

	// TopicCameraState carries the retained state document as JSON.
	// Published on every accepted write.
	TopicCameraState = TopicPrefix + "/state/camera"
)
