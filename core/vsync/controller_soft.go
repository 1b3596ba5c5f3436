package vsync

// NullController is a Controller with no real hardware vsync source,
// for tests and standalone demos that only need the softVSyncPeriod
// fallback. SetEnable and SetCallback are accepted but have no effect.
type NullController struct{}

var _ Controller = NullController{}

func (NullController) SetEnable(enable bool) error           { return nil }
func (NullController) SetCallback(observer HardwareObserver) error { return nil }
