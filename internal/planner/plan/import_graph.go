package plan

import (
	"sort"

	"github.com/rsned/production-planner/pkg/planner"
)

// link records one consumer node satisfied by a source tree.
type link struct {
	consumerTreeID string
	consumerPathID string
	sourceTreeID   string
	// rate is the demand currently carried by the source root for this node.
	rate float64
	// savedChildren are the node's children at the time it was imported.
	savedChildren []*planner.ProductionNode
}

func (l *link) record() planner.ImportRecord {
	return planner.ImportRecord{
		ConsumerTreeID: l.consumerTreeID,
		ConsumerPathID: l.consumerPathID,
		SourceTreeID:   l.sourceTreeID,
		RatePerMinute:  l.rate,
	}
}

// importGraph is the directed graph of imports between trees. An edge runs
// from a consumer tree to the source tree it imports from. Links are
// indexed by consumer node, by source tree (reverse edges) and by consumer
// tree.
type importGraph struct {
	links      map[string]*link
	bySource   map[string]map[string]struct{}
	byConsumer map[string]map[string]struct{}
}

func newImportGraph() *importGraph {
	return &importGraph{
		links:      make(map[string]*link),
		bySource:   make(map[string]map[string]struct{}),
		byConsumer: make(map[string]map[string]struct{}),
	}
}

func (g *importGraph) clone() *importGraph {
	c := newImportGraph()
	for _, l := range g.links {
		cp := *l
		c.add(&cp)
	}
	return c
}

func (g *importGraph) add(l *link) {
	g.links[l.consumerPathID] = l
	addIndex(g.bySource, l.sourceTreeID, l.consumerPathID)
	addIndex(g.byConsumer, l.consumerTreeID, l.consumerPathID)
}

func (g *importGraph) remove(consumerPathID string) {
	l, ok := g.links[consumerPathID]
	if !ok {
		return
	}
	delete(g.links, consumerPathID)
	removeIndex(g.bySource, l.sourceTreeID, consumerPathID)
	removeIndex(g.byConsumer, l.consumerTreeID, consumerPathID)
}

func (g *importGraph) get(consumerPathID string) (*link, bool) {
	l, ok := g.links[consumerPathID]
	return l, ok
}

// setRate records a new imported rate for a consumer node.
func (g *importGraph) setRate(consumerPathID string, rate float64) {
	if l, ok := g.links[consumerPathID]; ok {
		l.rate = rate
	}
}

// importers returns the links whose source is treeID, ordered by path.
func (g *importGraph) importers(treeID string) []*link {
	return g.collect(g.bySource[treeID])
}

// imports returns the links whose consumer node lives in treeID.
func (g *importGraph) imports(treeID string) []*link {
	return g.collect(g.byConsumer[treeID])
}

// demandOn sums the rate every consumer imports from treeID.
func (g *importGraph) demandOn(treeID string) float64 {
	var total float64
	for _, l := range g.importers(treeID) {
		total += l.rate
	}
	return total
}

// sources returns the distinct trees treeID imports from.
func (g *importGraph) sources(treeID string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, l := range g.imports(treeID) {
		if _, ok := seen[l.sourceTreeID]; ok {
			continue
		}
		seen[l.sourceTreeID] = struct{}{}
		out = append(out, l.sourceTreeID)
	}
	sort.Strings(out)
	return out
}

// path returns the chain of trees from..to following import edges, or nil
// when to is not reachable from from.
func (g *importGraph) path(from, to string) []string {
	prev := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			var chain []string
			for at := cur; at != ""; at = prev[at] {
				chain = append([]string{at}, chain...)
			}
			return chain
		}
		for _, next := range g.sources(cur) {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur
			queue = append(queue, next)
		}
	}
	return nil
}

// records returns every link as an ImportRecord ordered by consumer path.
func (g *importGraph) records() []planner.ImportRecord {
	paths := make([]string, 0, len(g.links))
	for p := range g.links {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := make([]planner.ImportRecord, 0, len(paths))
	for _, p := range paths {
		out = append(out, g.links[p].record())
	}
	return out
}

func (g *importGraph) collect(paths map[string]struct{}) []*link {
	if len(paths) == 0 {
		return nil
	}
	keys := make([]string, 0, len(paths))
	for p := range paths {
		keys = append(keys, p)
	}
	sort.Strings(keys)

	out := make([]*link, 0, len(keys))
	for _, p := range keys {
		out = append(out, g.links[p])
	}
	return out
}

func addIndex(idx map[string]map[string]struct{}, key, pathID string) {
	set, ok := idx[key]
	if !ok {
		set = make(map[string]struct{})
		idx[key] = set
	}
	set[pathID] = struct{}{}
}

func removeIndex(idx map[string]map[string]struct{}, key, pathID string) {
	set, ok := idx[key]
	if !ok {
		return
	}
	delete(set, pathID)
	if len(set) == 0 {
		delete(idx, key)
	}
}
