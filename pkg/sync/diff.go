package sync

import "github.com/robert-malhotra/fmi-stac-sync/pkg/stac"

// Diff returns the source items whose ID is not among targetIDs, in source
// order. An ID appears at most once in the result.
func Diff(sourceItems []*stac.Item, targetIDs []string) []*stac.Item {
	present := make(map[string]bool, len(targetIDs))
	for _, id := range targetIDs {
		present[id] = true
	}

	var missing []*stac.Item
	for _, item := range sourceItems {
		if item == nil || present[item.Id] {
			continue
		}
		present[item.Id] = true
		missing = append(missing, item)
	}
	return missing
}
