package trajectory

import "hash/fnv"

// inputHash is a cheap 32-bit fingerprint of a trajectory's starting text.
// It exists purely to let callers find trajectories that began from a
// similar prompt; stability across process restarts or Go versions is not
// a requirement, so the standard library's FNV-1a is sufficient and the
// value must never be treated as a stable content identifier.
func inputHash(text string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	return h.Sum32()
}
