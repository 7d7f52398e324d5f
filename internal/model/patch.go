package model

// Field is a patch slot for one task field. Its zero value means "not supplied";
// Set carries a new value and Clear asks for the field to be emptied.
type Field[T any] struct {
	value T
	state fieldState
}

type fieldState uint8

const (
	fieldOmitted fieldState = iota
	fieldSet
	fieldCleared
)

// Set returns a field carrying v
func Set[T any](v T) Field[T] {
	return Field[T]{value: v, state: fieldSet}
}

// Clear returns a field that empties the stored value
func Clear[T any]() Field[T] {
	return Field[T]{state: fieldCleared}
}

// Supplied reports whether the field was set or cleared
func (f Field[T]) Supplied() bool {
	return f.state != fieldOmitted
}

// IsClear reports whether the field asks for the value to be emptied
func (f Field[T]) IsClear() bool {
	return f.state == fieldCleared
}

// Get returns the carried value and whether one is present
func (f Field[T]) Get() (T, bool) {
	return f.value, f.state == fieldSet
}

// Ptr returns nil for a cleared field and a pointer to the value otherwise
func (f Field[T]) Ptr() *T {
	if f.state != fieldSet {
		return nil
	}
	v := f.value
	return &v
}

// TaskPatch lists the fields to change on a task. Title and Status cannot be cleared.
type TaskPatch struct {
	Title       Field[string]
	Description Field[string]
	Deadline    Field[Date]
	Status      Field[Status]
	ProjectID   Field[int64]
}

// IsEmpty reports whether no field was supplied
func (p TaskPatch) IsEmpty() bool {
	return !p.Title.Supplied() && !p.Description.Supplied() && !p.Deadline.Supplied() &&
		!p.Status.Supplied() && !p.ProjectID.Supplied()
}
