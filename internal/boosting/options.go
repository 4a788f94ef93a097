package boosting

// UpdateOptions are OR-combinable bits controlling how GenerateUpdate
// builds its candidate tensor.
type UpdateOptions uint32

const (
	// Default runs the greedy histogram-based splitter (internal/tree).
	Default UpdateOptions = 0
	// RandomSplits swaps the greedy splitter for internal/randomsplit's
	// uniformly random cut positions.
	RandomSplits UpdateOptions = 1 << 0
	// GradientSums, paired with RandomSplits, scores leaves from summed
	// residuals alone (no hessian division) -- used by calibration paths
	// that want plain gradient-sum boosting.
	GradientSums UpdateOptions = 1 << 1
)

func (o UpdateOptions) has(bit UpdateOptions) bool { return o&bit != 0 }
