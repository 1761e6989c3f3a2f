package simulation

import (
	"fmt"
	"sort"
)

// CohortSummary is the mean and median of likes received and matches over
// one cohort. An empty cohort yields NoData with zero values.
type CohortSummary struct {
	Cohort        Cohort  `json:"cohort"`
	Count         int     `json:"count"`
	NoData        bool    `json:"no_data,omitempty"`
	LikesMean     float64 `json:"likes_mean"`
	LikesMedian   float64 `json:"likes_median"`
	MatchesMean   float64 `json:"matches_mean"`
	MatchesMedian float64 `json:"matches_median"`
}

// Summarize computes a CohortSummary from the agents' current counters.
// It does not modify the agents.
func Summarize(c Cohort, agents []Agent) CohortSummary {
	s := CohortSummary{Cohort: c, Count: len(agents)}
	if len(agents) == 0 {
		s.NoData = true
		return s
	}
	likes := make([]int, len(agents))
	matches := make([]int, len(agents))
	for i := range agents {
		likes[i] = agents[i].numLikes
		matches[i] = agents[i].numMatches
	}
	s.LikesMean, s.LikesMedian = meanMedian(likes)
	s.MatchesMean, s.MatchesMedian = meanMedian(matches)
	return s
}

// meanMedian sorts vals in place. vals must be non-empty.
func meanMedian(vals []int) (mean, median float64) {
	sum := 0
	for _, v := range vals {
		sum += v
	}
	mean = float64(sum) / float64(len(vals))

	sort.Ints(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		median = float64(vals[mid])
	} else {
		median = float64(vals[mid-1]+vals[mid]) / 2
	}
	return mean, median
}

// Bucket is the average outcome of agents whose score falls in one
// percentile range. Empty buckets report zero means.
type Bucket struct {
	Label       string  `json:"label"` // e.g. "90-100"
	Lower       int     `json:"lower"`
	Upper       int     `json:"upper"`
	Count       int     `json:"count"`
	LikesMean   float64 `json:"likes_mean"`
	MatchesMean float64 `json:"matches_mean"`
}

// BucketByAttractiveness groups agents into nBins equal score ranges.
// Bucket i holds scores in [i/nBins, (i+1)/nBins); a score of exactly 1
// lands in the last bucket.
func BucketByAttractiveness(agents []Agent, nBins int) ([]Bucket, error) {
	if nBins <= 0 {
		return nil, &ConfigurationError{Field: "bin count", Value: nBins, Reason: "must be positive"}
	}

	likes := make([]int, nBins)
	matches := make([]int, nBins)
	buckets := make([]Bucket, nBins)
	for i := range buckets {
		lower := int(float64(i) / float64(nBins) * 100)
		upper := int(float64(i+1) / float64(nBins) * 100)
		buckets[i] = Bucket{
			Label: fmt.Sprintf("%d-%d", lower, upper),
			Lower: lower,
			Upper: upper,
		}
	}

	for i := range agents {
		b := bucketIndex(agents[i].Score, nBins)
		buckets[b].Count++
		likes[b] += agents[i].numLikes
		matches[b] += agents[i].numMatches
	}

	for i := range buckets {
		if n := buckets[i].Count; n > 0 {
			buckets[i].LikesMean = float64(likes[i]) / float64(n)
			buckets[i].MatchesMean = float64(matches[i]) / float64(n)
		}
	}
	return buckets, nil
}

func bucketIndex(score float64, nBins int) int {
	b := int(score * float64(nBins))
	if b >= nBins {
		b = nBins - 1
	}
	if b < 0 {
		b = 0
	}
	return b
}
