package search

import (
	"sort"
	"strconv"

	"moviestream/searchservice/internal/domain"
)

type clusterBucket struct {
	cluster domain.Cluster
	// Year of the highest-availability listing, earliest position on ties.
	bestScore float64
	bestYear  int
	title     string
}

// GroupListings clusters raw listings by normalized title with a ±1 year
// tolerance. Every listing lands in exactly one cluster. Callers pass
// listings already sorted by (provider, title), so output is deterministic
// regardless of how the fan-out completed.
//
// Clusters come back sorted descending by total availability, most promising
// match first.
func GroupListings(listings []domain.Listing) []domain.Cluster {
	if len(listings) == 0 {
		return nil
	}

	buckets := make([]*clusterBucket, 0, len(listings))

	for _, listing := range listings {
		key := normalizeTitle(listing.Title)
		if key.normalized == "" {
			continue
		}

		group := findBucket(buckets, key)
		if group == nil {
			group = &clusterBucket{
				cluster: domain.Cluster{
					Key:  clusterKey(key),
					Year: key.year,
				},
				bestScore: listing.Availability(),
				bestYear:  key.year,
				title:     key.normalized,
			}
			buckets = append(buckets, group)
		}

		group.cluster.Listings = append(group.cluster.Listings, listing)
		// A cluster's year is pinned by its first listing that carried one.
		if group.cluster.Year == 0 && key.year > 0 {
			group.cluster.Year = key.year
			group.cluster.Key = clusterKey(titleKey{normalized: group.title, year: key.year})
		}
		if score := listing.Availability(); score > group.bestScore {
			group.bestScore = score
			group.bestYear = key.year
		}
	}

	clusters := make([]domain.Cluster, 0, len(buckets))
	for _, group := range buckets {
		// The cluster title is the normalized form every member listing
		// shares, not one listing's raw text: provider punctuation and
		// casing vary per release ("WALL·E", "Wall-E", "WALL.E") while the
		// normalized form is identical across the cluster, which keeps the
		// catalog and metadata lookup key stable regardless of which
		// provider answered first.
		group.cluster.Title = group.title
		if group.bestYear > 0 {
			group.cluster.Year = group.bestYear
		}
		clusters = append(clusters, group.cluster)
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].Availability() > clusters[j].Availability()
	})
	return clusters
}

// findBucket locates the cluster a listing belongs to: same normalized title
// and a year within tolerance. Same title with years more than 1 apart stays
// a distinct cluster (same-title, different-release disambiguation).
func findBucket(buckets []*clusterBucket, key titleKey) *clusterBucket {
	for _, group := range buckets {
		if group.title != key.normalized {
			continue
		}
		if yearsCompatible(group.cluster.Year, key.year) {
			return group
		}
	}
	return nil
}

// clusterKey encodes the grouping identity as "title" or "title|year".
func clusterKey(key titleKey) string {
	if key.year == 0 {
		return key.normalized
	}
	return key.normalized + "|" + strconv.Itoa(key.year)
}
