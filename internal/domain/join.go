package domain

import "sort"

// Join matches every feature against records by normalized key. Each
// feature yields exactly one JoinedRecord in input order; unmatched features
// carry a nil value and are also listed in UnmatchedFeatures. Records that
// match no feature are listed in UnmatchedRecords.
//
// When several records share a normalized key the last one in source order
// wins and the earlier ones are reported as Superseded.
func Join(features []GeoFeature, records []TabularRecord, by KeyKind) JoinResult {
	idx := buildIndex(records, by)

	result := JoinResult{
		Joined:     make([]JoinedRecord, 0, len(features)),
		Superseded: idx.superseded,
		JoinedAt:   clock.Now().UTC(),
	}

	matched := make([]bool, len(records))
	owners := make(map[NormalizedKey]string, len(features))
	ambiguous := make(map[NormalizedKey]struct{})

	for _, f := range features {
		key, pos, ok := idx.lookup(f, by)
		if key.Valid() {
			if prev, seen := owners[key]; seen && prev != f.ID {
				ambiguous[key] = struct{}{}
			}
			owners[key] = f.ID
		}
		if !ok {
			result.Joined = append(result.Joined, JoinedRecord{Feature: f})
			result.UnmatchedFeatures = append(result.UnmatchedFeatures, f)
			continue
		}
		value := records[pos].Value
		matched[pos] = true
		result.Joined = append(result.Joined, JoinedRecord{Feature: f, Value: &value})
	}

	for _, pos := range idx.winners {
		if !matched[pos] {
			result.UnmatchedRecords = append(result.UnmatchedRecords, records[pos])
		}
	}

	if len(ambiguous) > 0 {
		result.Ambiguous = make([]NormalizedKey, 0, len(ambiguous))
		for k := range ambiguous {
			result.Ambiguous = append(result.Ambiguous, k)
		}
		sort.Slice(result.Ambiguous, func(i, j int) bool { return result.Ambiguous[i] < result.Ambiguous[j] })
	}
	return result
}

// recordIndex maps normalized keys to record positions.
type recordIndex struct {
	loose  map[NormalizedKey]int
	strict map[NormalizedKey]int

	// winners holds the surviving record position per key, in source order.
	winners    []int
	superseded []TabularRecord
}

func buildIndex(records []TabularRecord, by KeyKind) recordIndex {
	idx := recordIndex{
		loose:  make(map[NormalizedKey]int, len(records)*2),
		strict: make(map[NormalizedKey]int, len(records)),
	}

	// Resolve last-write-wins on the primary key first so earlier duplicates
	// can be reported and never count as unmatched.
	primary := make(map[NormalizedKey]int, len(records))
	order := make([]NormalizedKey, 0, len(records))
	for i, rec := range records {
		key := recordKey(rec, by)
		if !key.Valid() {
			continue
		}
		if prev, dup := primary[key]; dup {
			idx.superseded = append(idx.superseded, records[prev])
		} else {
			order = append(order, key)
		}
		primary[key] = i
	}

	for _, key := range order {
		pos := primary[key]
		idx.winners = append(idx.winners, pos)
		if by == KeyFIPS {
			idx.loose[key] = pos
			continue
		}
		for _, v := range KeyVariants(records[pos].Key) {
			idx.loose[v] = pos
		}
		if s := NormalizeStrict(records[pos].Key); s.Valid() {
			idx.strict[s] = pos
		}
	}
	sort.Ints(idx.winners)
	return idx
}

func recordKey(rec TabularRecord, by KeyKind) NormalizedKey {
	if by == KeyFIPS {
		key, _ := NormalizeFIPS(rec.Key)
		return key
	}
	return NormalizeName(rec.Key)
}

// lookup returns the feature's primary key and the matching record
// position. Name joins try both suffix variants of the loose key before
// falling back to the strict key.
func (idx recordIndex) lookup(f GeoFeature, by KeyKind) (NormalizedKey, int, bool) {
	if by == KeyFIPS {
		key, ok := NormalizeFIPS(f.ID)
		if !ok {
			return "", 0, false
		}
		pos, found := idx.loose[key]
		return key, pos, found
	}

	variants := KeyVariants(f.Name)
	if len(variants) == 0 {
		return "", 0, false
	}
	for _, v := range variants {
		if pos, found := idx.loose[v]; found {
			return variants[0], pos, true
		}
	}
	if s := NormalizeStrict(f.Name); s.Valid() {
		if pos, found := idx.strict[s]; found {
			return variants[0], pos, true
		}
	}
	return variants[0], 0, false
}
