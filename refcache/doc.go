// Package refcache resolves reference categories (city, position, division)
// into immutable identifier to display-name mappings and memoizes them for the
// lifetime of a Cache.
//
// Concurrent first requests for the same category are coalesced into a single
// store fetch:
//
//	cache := refcache.New(refcache.NewFetcher(client, logger))
//	cities, err := cache.CityMap(ctx)
//	if err != nil {
//		return err
//	}
//	name := cities.Name(employee.CityUUID) // "" when unknown
//
// A successful build is kept forever; a failed build is not cached, so the
// next Resolve fetches again. There is no expiry and no per-entry
// invalidation: construct a new Cache to observe fresh reference data.
package refcache
