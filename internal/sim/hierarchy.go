package sim

// Pure graph utilities over the shared bond-state slice. Parent edges form
// a forest; cycle edges are the only non-hierarchical links. Every
// traversal is depth-capped: blowing the cap means the forest invariant
// was already violated upstream, and callers must treat the molecule as
// suspect instead of looping forever.

// findRoot follows the parent chain from id to the top of its tree.
// If the cap is exceeded it returns the current position, signaling a
// cycle-in-tree bug to the caller.
func findRoot(states []BondState, id, maxDepth int) int {
	if id < 0 || id >= len(states) {
		return None
	}
	root := id
	for depth := 0; states[root].Parent != None && depth < maxDepth; depth++ {
		root = states[root].Parent
	}
	return root
}

// pathToRoot returns the ordered parent chain starting at id (inclusive)
// up to the root. ok is false when the depth cap was exceeded.
func pathToRoot(states []BondState, id, maxDepth int) (path []int, ok bool) {
	if id < 0 || id >= len(states) {
		return nil, false
	}
	curr := id
	for depth := 0; curr != None; depth++ {
		if depth >= maxDepth {
			return nil, false
		}
		path = append(path, curr)
		curr = states[curr].Parent
	}
	return path, true
}

// children returns all entities whose parent is id, by linear scan.
func children(states []BondState, id int) []int {
	var out []int
	for i := range states {
		if states[i].Parent == id {
			out = append(out, i)
		}
	}
	return out
}

// childIndex builds a children adjacency list for the whole slice in one
// pass, for traversals that would otherwise rescan per node.
func childIndex(states []BondState) [][]int {
	idx := make([][]int, len(states))
	for i := range states {
		if p := states[i].Parent; p >= 0 && p < len(states) {
			idx[p] = append(idx[p], i)
		}
	}
	return idx
}

// propagateMoleculeID assigns newID as the memoized molecule id of seed
// and of everything reachable from it through child and cycle edges.
// Iterative with an explicit stack: pathological chains must not risk
// stack depth.
func propagateMoleculeID(states []BondState, seed, newID int) {
	if seed < 0 || seed >= len(states) {
		return
	}
	byParent := childIndex(states)
	visited := make([]bool, len(states))
	stack := []int{seed}
	visited[seed] = true

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		states[id].MoleculeID = newID

		for _, ch := range byParent[id] {
			if !visited[ch] {
				visited[ch] = true
				stack = append(stack, ch)
			}
		}
		if cb := states[id].CycleBond; cb != None && !visited[cb] {
			visited[cb] = true
			stack = append(stack, cb)
		}
	}
}

// connectedMembers returns every entity reachable from seed through
// parent, child and cycle edges: the true connectivity set, independent
// of the memoized molecule ids.
func connectedMembers(states []BondState, seed int) []int {
	if seed < 0 || seed >= len(states) {
		return nil
	}
	byParent := childIndex(states)
	visited := make([]bool, len(states))
	stack := []int{seed}
	visited[seed] = true
	var members []int

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		members = append(members, id)

		if p := states[id].Parent; p != None && !visited[p] {
			visited[p] = true
			stack = append(stack, p)
		}
		for _, ch := range byParent[id] {
			if !visited[ch] {
				visited[ch] = true
				stack = append(stack, ch)
			}
		}
		if cb := states[id].CycleBond; cb != None && !visited[cb] {
			visited[cb] = true
			stack = append(stack, cb)
		}
	}
	return members
}

// lowestCommonAncestor scans two root paths for their first shared node.
// distI and distJ are the hop offsets at which the match occurred; found
// is false when the two entities are in different trees.
func lowestCommonAncestor(pathI, pathJ []int) (lca, distI, distJ int, found bool) {
	for i, a := range pathI {
		for j, b := range pathJ {
			if a == b {
				return a, i, j, true
			}
		}
	}
	return None, 0, 0, false
}

// hierarchyDistance counts the hops between i and j through their lowest
// common ancestor. ok is false when they are in different trees or a
// traversal blew the depth cap.
func hierarchyDistance(states []BondState, i, j, maxDepth int) (hops int, ok bool) {
	pathI, okI := pathToRoot(states, i, maxDepth)
	pathJ, okJ := pathToRoot(states, j, maxDepth)
	if !okI || !okJ {
		return 0, false
	}
	_, distI, distJ, found := lowestCommonAncestor(pathI, pathJ)
	if !found {
		return 0, false
	}
	return distI + distJ, true
}
