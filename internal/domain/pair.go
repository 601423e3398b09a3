package domain

// Pair matches x records against y records by normalized key and returns
// one point per matched key, labeled with the x record's key and in x
// source order. Duplicate keys on either side resolve last-write-wins as
// in Join.
func Pair(xs, ys []TabularRecord, by KeyKind) []Point {
	xIdx := buildIndex(xs, by)
	yIdx := buildIndex(ys, by)

	points := make([]Point, 0, len(xIdx.winners))
	for _, pos := range xIdx.winners {
		x := xs[pos]
		_, match, ok := yIdx.lookup(GeoFeature{ID: x.Key, Name: x.Key}, by)
		if !ok {
			continue
		}
		points = append(points, Point{Label: x.Key, X: x.Value, Y: ys[match].Value})
	}
	return points
}
