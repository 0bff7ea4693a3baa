package geom

// Repair returns r unchanged when it is a valid simple ring. An invalid ring is
// cleaned of repeated consecutive vertices and rebuilt from its own edges; the
// largest face wins. The result is nil when no face survives.
func Repair(r Ring) Ring {
	if r.IsValid() {
		return r
	}
	clean := dedupeConsecutive(r)
	if len(clean) < 3 {
		return nil
	}
	faces := Polygonize(clean.Segments(), 0)
	return Largest(faces)
}

// RepairAll repairs each ring and drops the ones that did not survive.
func RepairAll(rings []Ring) []Ring {
	out := make([]Ring, 0, len(rings))
	for _, r := range rings {
		if fixed := Repair(r); len(fixed) >= 3 {
			out = append(out, fixed)
		}
	}
	return out
}

func dedupeConsecutive(r Ring) Ring {
	out := make(Ring, 0, len(r))
	for _, p := range r {
		if len(out) > 0 && near(out[len(out)-1], p, Epsilon) {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && near(out[0], out[len(out)-1], Epsilon) {
		out = out[:len(out)-1]
	}
	return out
}
