package analyzer

import (
	"fmt"

	"github.com/anime-shed/body-measure-go/pkg/models"
)

// Joint names a landmark in the 33-point pose layout. Its value is the
// landmark's index in a frame.
type Joint int

const (
	JointLeftEye       Joint = 2
	JointRightEye      Joint = 5
	JointLeftShoulder  Joint = 11
	JointRightShoulder Joint = 12
	JointLeftHip       Joint = 23
	JointRightHip      Joint = 24
)

// PoseLandmarkCount is the size of a full pose frame.
const PoseLandmarkCount = 33

// requiredJoints must all be present for a frame to be measured.
var requiredJoints = []Joint{
	JointLeftEye, JointRightEye,
	JointLeftShoulder, JointRightShoulder,
	JointLeftHip, JointRightHip,
}

// torsoJoints are visibility gated.
var torsoJoints = []Joint{
	JointLeftShoulder, JointRightShoulder,
	JointLeftHip, JointRightHip,
}

func (j Joint) String() string {
	switch j {
	case JointLeftEye:
		return "left_eye"
	case JointRightEye:
		return "right_eye"
	case JointLeftShoulder:
		return "left_shoulder"
	case JointRightShoulder:
		return "right_shoulder"
	case JointLeftHip:
		return "left_hip"
	case JointRightHip:
		return "right_hip"
	default:
		return fmt.Sprintf("joint(%d)", int(j))
	}
}

// Of returns the joint's landmark in frame, or nil when the frame does not
// carry it.
func (j Joint) Of(frame models.LandmarkFrame) *models.Landmark {
	i := int(j)
	if i < 0 || i >= len(frame.Landmarks) {
		return nil
	}
	return frame.Landmarks[i]
}
