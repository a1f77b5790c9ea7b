package fetcher

// Result maps identifier -> provider -> URL. Only resolved pairs are present.
type Result map[string]map[string]string

// add records url for (id, provider). A repeated pair keeps the last URL.
func (r Result) add(id, provider, url string) {
	byProvider, ok := r[id]
	if !ok {
		byProvider = make(map[string]string)
		r[id] = byProvider
	}
	byProvider[provider] = url
}

// merge folds one resolver report into r.
func (r Result) merge(rep report) {
	for id, url := range rep.urls {
		r.add(id, rep.provider, url)
	}
}

// Preferred picks one URL per identifier, taking the first provider in order
// that has one. Identifiers with no URL from any listed provider are omitted.
func (r Result) Preferred(order []string) map[string]string {
	picked := make(map[string]string, len(r))
	for id, byProvider := range r {
		for _, provider := range order {
			if url, ok := byProvider[provider]; ok && url != "" {
				picked[id] = url
				break
			}
		}
	}
	return picked
}

// Count returns the number of (identifier, provider) pairs with a URL.
func (r Result) Count() int {
	n := 0
	for _, byProvider := range r {
		n += len(byProvider)
	}
	return n
}
