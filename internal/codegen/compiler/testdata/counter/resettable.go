package counter

//gobject:interface
type resettableImpl struct{}

//gobject:virtual
func (r *resettableImpl) reset() string { return "reset" }
