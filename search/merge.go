package search

import "sort"

// Merge fuses keyword and semantic results into one per-record ranking:
//
//	combined = weight*semantic + (1-weight)*keyword
//
// Each sub-result list is collapsed to its best score per record and
// normalized to [0,1] before weighting. Both engines already emit scores in
// [0,1] (trigram similarity, cosine mapped by 1-distance), so normalization
// only rescales when a backend produced something larger and clamps negatives;
// it never stretches well-formed scores, which keeps w=0 and w=1 exactly equal
// to the single-strategy scores. A record present in only one list scores 0
// for the missing component but stays eligible to outrank two mediocre scores.
func Merge(keyword, semantic []Result, weight float64, limit int) []Result {
	kw := bestByRecord(keyword)
	sem := bestByRecord(semantic)

	normalize(kw)
	normalize(sem)

	uuids := map[string]struct{}{}
	for uuid := range kw {
		uuids[uuid] = struct{}{}
	}
	for uuid := range sem {
		uuids[uuid] = struct{}{}
	}

	merged := make([]Result, 0, len(uuids))

	for uuid := range uuids {
		var kScore, sScore float64

		res := Result{VconUUID: uuid}

		if k, exists := kw[uuid]; exists {
			kScore = k.Score
			res.Source = k.Source
			res.SourceIndex = k.SourceIndex
			res.Snippet = k.Snippet
		}
		if s, exists := sem[uuid]; exists {
			sScore = s.Score
			if len(res.Source) == 0 {
				res.Source = s.Source
				res.SourceIndex = s.SourceIndex
			}
		}

		res.Score = weight*sScore + (1-weight)*kScore
		merged = append(merged, res)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].VconUUID < merged[j].VconUUID
	})

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}

	return merged
}

// bestByRecord keeps the highest-scoring result per record. Ties keep the
// earlier result, which is deterministic because both engines order their
// output.
func bestByRecord(results []Result) map[string]Result {
	best := map[string]Result{}
	for _, res := range results {
		if cur, exists := best[res.VconUUID]; exists && cur.Score >= res.Score {
			continue
		}
		best[res.VconUUID] = res
	}
	return best
}

func normalize(results map[string]Result) {
	var max float64
	for _, res := range results {
		if res.Score > max {
			max = res.Score
		}
	}

	for uuid, res := range results {
		if res.Score < 0 {
			res.Score = 0
		}
		if max > 1 {
			res.Score = res.Score / max
		}
		results[uuid] = res
	}
}
