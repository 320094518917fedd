package workflow

// ApplyDirective folds a supervisory directive into carry-forward per
// its type: functional directives prepend (they interrupt and must be
// addressed first), cleanup directives append.
func ApplyDirective(carryForward []string, d Directive) []string {
	switch d.Type {
	case DirectiveFunctional:
		return append([]string{d.Description}, carryForward...)
	case DirectiveCleanup:
		return append(carryForward, d.Description)
	default:
		return carryForward
	}
}

// ConsumeDirective removes a directive from the pending queue once the
// task it inspired is completed or abandoned. It matches by pointer
// identity of the slice element via index, not by value, since two
// directives may carry identical text.
func ConsumeDirective(pending []Directive, index int) []Directive {
	if index < 0 || index >= len(pending) {
		return pending
	}
	out := make([]Directive, 0, len(pending)-1)
	out = append(out, pending[:index]...)
	out = append(out, pending[index+1:]...)
	return out
}
