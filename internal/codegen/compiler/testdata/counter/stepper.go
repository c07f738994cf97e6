package counter

//gobject:class extends=Counter, implements=[Resettable]
type stepperImpl struct{}

//gobject:virtual override
func (s *stepperImpl) describe() string { return "stepper" }

//gobject:virtual override_iface=Resettable
func (s *stepperImpl) reset() string { return "stepper reset" }

//gobject:signal override
func (s *stepperImpl) changed(delta int) int { return delta * 10 }
