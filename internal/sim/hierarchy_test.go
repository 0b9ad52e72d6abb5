package sim

import "testing"

// chainStates builds n bond states linked 0 <- 1 <- ... <- n-1, each
// entity's parent being its predecessor.
func chainStates(n int) []BondState {
	states := make([]BondState, n)
	for i := range states {
		states[i] = isolatedState(i)
		if i > 0 {
			states[i].Parent = i - 1
			states[i].Clustered = true
			states[i].MoleculeID = 0
		}
	}
	return states
}

func TestFindRoot(t *testing.T) {
	states := chainStates(4)

	if got := findRoot(states, 3, 100); got != 0 {
		t.Errorf("Expected root 0, got %d", got)
	}
	if got := findRoot(states, 0, 100); got != 0 {
		t.Errorf("Expected the root of a root to be itself, got %d", got)
	}
	if got := findRoot(states, -1, 100); got != None {
		t.Errorf("Expected None out of range, got %d", got)
	}
}

func TestPathToRoot(t *testing.T) {
	states := chainStates(4)

	path, ok := pathToRoot(states, 3, 100)
	if !ok {
		t.Fatal("Expected traversal to succeed")
	}
	want := []int{3, 2, 1, 0}
	if len(path) != len(want) {
		t.Fatalf("Expected path %v, got %v", want, path)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Fatalf("Expected path %v, got %v", want, path)
		}
	}
}

func TestPathToRoot_DepthCap(t *testing.T) {
	states := chainStates(10)

	if _, ok := pathToRoot(states, 9, 5); ok {
		t.Error("Expected depth cap to abort deep traversal")
	}

	// A corrupted two-node parent loop must also hit the cap instead of
	// spinning forever.
	loop := []BondState{isolatedState(0), isolatedState(1)}
	loop[0].Parent = 1
	loop[1].Parent = 0
	if _, ok := pathToRoot(loop, 0, 100); ok {
		t.Error("Expected depth cap to catch a parent cycle")
	}
}

func TestChildren(t *testing.T) {
	states := make([]BondState, 4)
	for i := range states {
		states[i] = isolatedState(i)
	}
	states[1].Parent = 0
	states[2].Parent = 0
	states[3].Parent = 2

	got := children(states, 0)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Expected children [1 2], got %v", got)
	}
	if got := children(states, 1); len(got) != 0 {
		t.Errorf("Expected no children, got %v", got)
	}
}

func TestPropagateMoleculeID(t *testing.T) {
	states := chainStates(4)
	// Add a cycle edge 3 <-> 0 to make sure propagation crosses it.
	states[3].CycleBond = 0
	states[0].CycleBond = 3

	propagateMoleculeID(states, 0, 42)

	for i := range states {
		if states[i].MoleculeID != 42 {
			t.Errorf("Expected entity %d molecule 42, got %d", i, states[i].MoleculeID)
		}
	}
}

func TestPropagateMoleculeID_SubtreeOnly(t *testing.T) {
	// Two separate chains; propagation from one must not leak into the
	// other.
	states := make([]BondState, 4)
	for i := range states {
		states[i] = isolatedState(i)
	}
	states[1].Parent = 0
	states[3].Parent = 2

	propagateMoleculeID(states, 0, 0)

	if states[2].MoleculeID != 2 || states[3].MoleculeID != 3 {
		t.Error("Expected the second chain untouched")
	}
}

func TestConnectedMembers(t *testing.T) {
	states := chainStates(3)
	states = append(states, isolatedState(3)) // unrelated atom

	members := connectedMembers(states, 1) // from mid-chain
	if len(members) != 3 {
		t.Fatalf("Expected 3 connected members, got %d", len(members))
	}
	found := make(map[int]bool)
	for _, m := range members {
		found[m] = true
	}
	if !found[0] || !found[1] || !found[2] || found[3] {
		t.Errorf("Unexpected membership: %v", members)
	}
}

func TestLowestCommonAncestor(t *testing.T) {
	// Tree:       0
	//           /   \
	//          1     3
	//          |     |
	//          2     4
	pathI := []int{2, 1, 0}
	pathJ := []int{4, 3, 0}

	lca, distI, distJ, found := lowestCommonAncestor(pathI, pathJ)
	if !found {
		t.Fatal("Expected an LCA in the same tree")
	}
	if lca != 0 || distI != 2 || distJ != 2 {
		t.Errorf("Expected LCA 0 at (2, 2), got %d at (%d, %d)", lca, distI, distJ)
	}

	// Ancestor-descendant: LCA is the ancestor itself.
	lca, distI, distJ, found = lowestCommonAncestor([]int{2, 1, 0}, []int{0})
	if !found || lca != 0 || distI != 2 || distJ != 0 {
		t.Errorf("Expected LCA 0 at (2, 0), got %d at (%d, %d)", lca, distI, distJ)
	}

	if _, _, _, found := lowestCommonAncestor([]int{1, 0}, []int{3, 2}); found {
		t.Error("Expected no LCA across trees")
	}
}

func TestHierarchyDistance(t *testing.T) {
	states := chainStates(5)

	hops, ok := hierarchyDistance(states, 4, 0, 100)
	if !ok || hops != 4 {
		t.Errorf("Expected 4 hops along the chain, got %d (ok=%v)", hops, ok)
	}

	hops, ok = hierarchyDistance(states, 2, 2, 100)
	if !ok || hops != 0 {
		t.Errorf("Expected 0 hops to self, got %d", hops)
	}

	// Different trees.
	states = append(states, isolatedState(5))
	if _, ok := hierarchyDistance(states, 0, 5, 100); ok {
		t.Error("Expected no hierarchy distance across molecules")
	}
}
