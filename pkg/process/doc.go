// Package process turns raw dataset records into renderable nodes and edges.
//
// [Process] is pure apart from color generation: it scans the raw edges
// once to count degrees, scales node values onto sizes, derives importance
// and a collision footprint, resolves edges against the surviving nodes and
// scales edge values onto stroke widths.
//
//	res := process.Process(dataset, process.Options{})
//	for _, issue := range res.Issues {
//	    logger.Warn("invalid record", "issue", issue)
//	}
//	fmt.Println(res.Neighbors("a"))
//
// Malformed records never abort processing. They are dropped or repaired
// and reported in [Result.Issues] so the host can surface them.
package process
