package planner

import (
	"time"

	"github.com/amken3d/ptzrig/quintic"
)

// Trajectory is a profiled point-to-point move request: per-axis start and
// end position in microsteps, a duration, and the easing curve to shape
// the move with. PAN/TILT/ZOOM order throughout, matching core.AxisID.
type Trajectory struct {
	Start    [3]int64
	End      [3]int64
	Duration time.Duration
	Easing   quintic.Easing
}
