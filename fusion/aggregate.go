package fusion

// Group drops records whose anchor does not resolve and groups the rest by
// device. Devices appear in order of their first resolvable record and each
// device's candidates keep arrival order.
func Group(records []ScanRecord, reg *Registry) (groups []DeviceCandidates, unresolved int) {
	index := make(map[string]int)
	for _, rec := range records {
		x, y, ok := reg.Resolve(rec.AnchorID)
		if !ok {
			unresolved++
			continue
		}
		c := Candidate{AnchorID: rec.AnchorID, X: x, Y: y, RSSI: rec.RSSI}
		i, seen := index[rec.DeviceID]
		if !seen {
			i = len(groups)
			index[rec.DeviceID] = i
			groups = append(groups, DeviceCandidates{DeviceID: rec.DeviceID})
		}
		groups[i].Candidates = append(groups[i].Candidates, c)
	}
	return groups, unresolved
}

// Strongest returns the candidate with the highest RSSI. Among equal maxima
// the earliest candidate wins, matching the head of a stable descending sort.
func Strongest(cands []Candidate) (Candidate, bool) {
	if len(cands) == 0 {
		return Candidate{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.RSSI > best.RSSI {
			best = c
		}
	}
	return best, true
}
