package domain

import "strings"

type IndexEntry struct {
	APIKey string
	Used   bool
}

// PoolIndex is the insertion-ordered membership list of one primary account.
type PoolIndex []IndexEntry

func (idx PoolIndex) Contains(apiKey string) bool {
	for _, entry := range idx {
		if entry.APIKey == apiKey {
			return true
		}
	}

	return false
}

// FirstFree returns the position of the first entry with Used=false.
func (idx PoolIndex) FirstFree() (int, bool) {
	for i, entry := range idx {
		if !entry.Used {
			return i, true
		}
	}

	return -1, false
}

// WithMembership drops any entry for apiKey and appends it with used.
func (idx PoolIndex) WithMembership(apiKey string, used bool) PoolIndex {
	out := make(PoolIndex, 0, len(idx)+1)
	for _, entry := range idx {
		if entry.APIKey == apiKey {
			continue
		}
		out = append(out, entry)
	}

	return append(out, IndexEntry{APIKey: apiKey, Used: used})
}

// Normalize drops blank keys and keeps the first entry of each key.
func (idx PoolIndex) Normalize() PoolIndex {
	out := make(PoolIndex, 0, len(idx))
	seen := make(map[string]struct{}, len(idx))
	for _, entry := range idx {
		key := strings.TrimSpace(entry.APIKey)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, IndexEntry{APIKey: key, Used: entry.Used})
	}

	return out
}

func (idx PoolIndex) Counts() (free int, leased int) {
	for _, entry := range idx {
		if entry.Used {
			leased++
			continue
		}
		free++
	}

	return free, leased
}
