package object

// Kind enumerates the role a class plays in the system, per spec.md §3.
type Kind int

const (
	KindSystem Kind = iota
	KindDevice
	KindBasicService
	KindComplexService
	KindProxy
	KindStub
	KindApplication
	KindUtility
)

func (k Kind) String() string {
	switch k {
	case KindSystem:
		return "system"
	case KindDevice:
		return "device"
	case KindBasicService:
		return "basic-service"
	case KindComplexService:
		return "complex-service"
	case KindProxy:
		return "proxy"
	case KindStub:
		return "stub"
	case KindApplication:
		return "application"
	case KindUtility:
		return "utility"
	default:
		return "unknown"
	}
}

// ClassDescriptor is the class-fixed metadata every object carries (spec.md
// §3 "class descriptor"). It is immutable once built and shared by every
// instance of the class.
type ClassDescriptor struct {
	Kind                Kind
	ClassName           string
	Aliases             []string
	Singleton           bool
	DefaultInstanceName string
	Dependencies        []string
}

// Matches reports whether name equals the class name or one of its aliases.
func (d ClassDescriptor) Matches(name string) bool {
	if name == d.ClassName {
		return true
	}
	for _, a := range d.Aliases {
		if a == name {
			return true
		}
	}
	return false
}
