package clients

// Sentinel turns visibility reports of the marker at the end of the rendered
// list into load triggers. It fires at most once per time the marker comes
// into view. If the marker appears while a load is running or nothing is
// left, the trigger stays pending until a later report finds the list
// eligible. Hiding the marker, or rearming after the list grew, allows the
// next trigger.
type Sentinel struct {
	fired bool
}

// Observe records the marker's visibility and reports whether a next page
// load should start now.
func (s *Sentinel) Observe(visible, hasMore, loadingMore bool) bool {
	if !visible {
		s.fired = false
		return false
	}
	if s.fired || !hasMore || loadingMore {
		return false
	}
	s.fired = true
	return true
}

// Rearm allows one more trigger while the marker stays visible. The cache
// calls it whenever the rendered list changes length.
func (s *Sentinel) Rearm() {
	s.fired = false
}
