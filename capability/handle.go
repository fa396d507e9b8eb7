package capability

// Handle is a type-erased (id, pointer) pair identifying a capability
// exposed by some object. It is a weak reference: holding a Handle does not
// keep the originating object alive (spec.md §3, "Capability handle"). A
// Handle compares by (ID, pointer identity); the null handle has ID()==NilID
// and Pointer()==nil.
type Handle struct {
	id  ID
	ptr interface{}
}

// NullHandle is the zero-value handle, with ID() == NilID.
var NullHandle = Handle{}

// NewHandle constructs a handle over ptr exposing capability id.
// NewHandle(NilID, x) and NewHandle(id, nil) both collapse to NullHandle,
// since a handle with either field empty cannot be dereferenced.
func NewHandle(id ID, ptr interface{}) Handle {
	if id == NilID || ptr == nil {
		return NullHandle
	}
	return Handle{id: id, ptr: ptr}
}

// ID returns the capability id carried by the handle, or NilID for the null
// handle.
func (h Handle) ID() ID { return h.id }

// IsNull reports whether h is the null handle.
func (h Handle) IsNull() bool { return h.id == NilID || h.ptr == nil }

// Equal reports whether h and other reference the same capability on the
// same underlying object. Ordering beyond equality has no defined meaning
// other than "same id, same pointer"; callers that need a total order
// should key on (ID(), fmt.Sprintf("%p", ...)) themselves.
func (h Handle) Equal(other Handle) bool {
	return h.id == other.id && h.ptr == other.ptr
}

// Get returns the pointer stored in h asserted to type T if and only if h's
// id equals wantID; otherwise it returns the zero value of T and false.
// This is the capability-query "get<T>()" from spec.md §4.1: there is no
// runtime type hierarchy, only an id match.
func Get[T any](h Handle, wantID ID) (T, bool) {
	var zero T
	if h.id != wantID || h.ptr == nil {
		return zero, false
	}
	v, ok := h.ptr.(T)
	if !ok {
		return zero, false
	}
	return v, true
}
