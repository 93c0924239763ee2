package journey

// BuildPath produces the full round-trip stop sequence for a train: the
// outbound leg in travel order followed by the mirrored inbound leg. The
// turnaround station is shared between the legs and appears exactly once, so
// a train serving N stations has a path of length 2N-1.
//
// Route stations the train does not stop at are excluded entirely; the
// relative order of the rest is taken from the route. An empty intersection
// yields an empty path.
func BuildPath(routeStations []Station, stoppages []Stoppage, direction Direction) []Station {
	served := make(map[string]bool, len(stoppages))
	for _, s := range stoppages {
		served[s.StationID] = true
	}

	var outbound []Station
	for _, st := range routeStations {
		if served[st.StationID] {
			outbound = append(outbound, st)
		}
	}
	if len(outbound) == 0 {
		return nil
	}
	if direction == DirectionDown {
		for i, j := 0, len(outbound)-1; i < j; i, j = i+1, j-1 {
			outbound[i], outbound[j] = outbound[j], outbound[i]
		}
	}

	path := make([]Station, 0, 2*len(outbound)-1)
	path = append(path, outbound...)
	for i := len(outbound) - 2; i >= 0; i-- {
		path = append(path, outbound[i])
	}
	return path
}

// TurnaroundIndex is the position of the reversal point in a path built by
// BuildPath: the last stop of the outbound leg.
func TurnaroundIndex(path []Station) int {
	return len(path) / 2
}
