package tracing

// GetTraceTree reconstructs the span hierarchy for a trace. Spans are
// indexed by parent ID in a single pass, so the build is O(n). A span whose
// parent is empty or unresolved becomes a root; multiple roots are returned
// as a forest.
//
// Producers are not trusted to report consistent parent links. The walk
// tracks visited span IDs along each descent; an edge that closes a cycle
// is dropped and the offending span is reparented as an orphan root.
func (s *System) GetTraceTree(traceID string) ([]*SpanNode, error) {
	spans, err := s.GetTrace(traceID)
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]*SpanNode, len(spans))
	for i := range spans {
		nodes[spans[i].SpanID] = &SpanNode{Span: spans[i]}
	}

	var roots []*SpanNode
	for i := range spans {
		node := nodes[spans[i].SpanID]
		parent := nodes[spans[i].ParentSpanID]
		if spans[i].ParentSpanID == "" || parent == nil || parent == node {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	visited := make(map[string]bool, len(spans))
	for _, root := range roots {
		pruneAndMark(root, visited)
	}

	// Any span not reachable from a root sits on a cycle. Detach it as an
	// orphan root and walk its remaining subtree; the back edge into it is
	// pruned when encountered.
	for i := range spans {
		id := spans[i].SpanID
		if visited[id] {
			continue
		}
		orphan := nodes[id]
		roots = append(roots, orphan)
		pruneAndMark(orphan, visited)
	}

	return roots, nil
}

// pruneAndMark marks the subtree visited, dropping edges to already-visited
// nodes so each span appears exactly once in the forest.
func pruneAndMark(n *SpanNode, visited map[string]bool) {
	visited[n.Span.SpanID] = true
	kept := n.Children[:0]
	for _, c := range n.Children {
		if visited[c.Span.SpanID] {
			continue
		}
		kept = append(kept, c)
		pruneAndMark(c, visited)
	}
	n.Children = kept
}
