package pricing

// Reconcile forces amounts to sum exactly to target by adding the remainder
// to the last element. It returns a new slice together with the applied delta;
// the input is never modified. An empty input cannot absorb anything, so the
// full target is reported back as the delta.
func Reconcile(amounts []Money, target Money) ([]Money, Money) {
	out := append([]Money(nil), amounts...)
	delta := target - Sum(out)
	if len(out) == 0 {
		return out, delta
	}
	out[len(out)-1] += delta
	return out, delta
}
