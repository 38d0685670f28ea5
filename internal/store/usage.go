package store

import "sort"

// Usage aggregates token counts over a group of LLM events.
type Usage struct {
	Key          string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// UsageByPurpose groups events by purpose, busiest first.
func UsageByPurpose(events []LLMEventRecord) []Usage {
	return groupUsage(events, func(e LLMEventRecord) string { return e.Purpose })
}

// UsageByModel groups events by model, busiest first.
func UsageByModel(events []LLMEventRecord) []Usage {
	return groupUsage(events, func(e LLMEventRecord) string { return e.Model })
}

func groupUsage(events []LLMEventRecord, key func(LLMEventRecord) string) []Usage {
	byKey := make(map[string]*Usage)
	latency := make(map[string]int64)
	for _, e := range events {
		k := key(e)
		u, ok := byKey[k]
		if !ok {
			u = &Usage{Key: k}
			byKey[k] = u
		}
		u.Calls++
		u.InputTokens += e.InputTokens
		u.OutputTokens += e.OutputTokens
		latency[k] += e.LatencyMs
	}

	out := make([]Usage, 0, len(byKey))
	for k, u := range byKey {
		u.AvgLatencyMs = latency[k] / int64(u.Calls)
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Calls != out[j].Calls {
			return out[i].Calls > out[j].Calls
		}
		return out[i].Key < out[j].Key
	})
	return out
}
