package scene

import "github.com/Faultbox/gltf-scene/pkg/math"

// linkHierarchy validates children indices, sets Parent back-references and
// rejects nodes with two parents or cycles.
func linkHierarchy(nodes []Node) error {
	for i := range nodes {
		for _, c := range nodes[i].Children {
			if c < 0 || c >= len(nodes) {
				return malformed("node %d child %d out of range [0, %d)", i, c, len(nodes))
			}
			if p, ok := nodes[c].Parent.Get(); ok {
				return malformed("node %d is a child of both %d and %d", c, p, i)
			}
			nodes[c].Parent = Some(i)
		}
	}

	// With at most one parent each, every node reachable from a root is in a
	// tree. Whatever is left over sits on a parent cycle.
	visited := 0
	var stack []int
	for i := range nodes {
		if nodes[i].Parent.Valid() {
			continue
		}
		stack = append(stack[:0], i)
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			visited++
			stack = append(stack, nodes[n].Children...)
		}
	}
	if visited != len(nodes) {
		for i := range nodes {
			if onCycle(nodes, i) {
				return malformed("node %d is part of a cycle", i)
			}
		}
		return malformed("node hierarchy contains a cycle")
	}
	return nil
}

// onCycle follows parent links from n and reports whether it returns to n.
func onCycle(nodes []Node, n int) bool {
	cur := n
	for steps := 0; steps < len(nodes); steps++ {
		p, ok := nodes[cur].Parent.Get()
		if !ok {
			return false
		}
		if p == n {
			return true
		}
		cur = p
	}
	return false
}

// Frame is one transformed-frame snapshot.
type Frame struct {
	World []math.Mat4
	Skins [][]math.Mat4
}

func newFrame(nodes int, skins []Skin) Frame {
	f := Frame{}
	f.resize(nodes, skins)
	return f
}

// resize grows the snapshot to match the tables after runtime mutation.
func (f *Frame) resize(nodes int, skins []Skin) {
	for len(f.World) < nodes {
		f.World = append(f.World, math.Identity())
	}
	for len(f.Skins) < len(skins) {
		s := skins[len(f.Skins)]
		joints := make([]math.Mat4, len(s.Joints))
		for j := range joints {
			joints[j] = math.Identity()
		}
		f.Skins = append(f.Skins, joints)
	}
}

type pending struct {
	node   int
	parent math.Mat4
}

// propagate writes world[n] = parent * local[n] for every node under roots,
// depth first with children in document order.
func propagate(nodes []Node, locals []math.Mat4, roots []int, base math.Mat4, world []math.Mat4) {
	stack := make([]pending, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, pending{node: roots[i], parent: base})
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		w := top.parent.Mul(locals[top.node])
		world[top.node] = w

		children := nodes[top.node].Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, pending{node: children[i], parent: w})
		}
	}
}

// resolveSkins writes joint[j] = world[joints[j]] * inverseBind[j] for every skin.
func resolveSkins(skins []Skin, world []math.Mat4, out [][]math.Mat4) {
	for s := range skins {
		skin := &skins[s]
		for j, n := range skin.Joints {
			out[s][j] = world[n].Mul(skin.InverseBind(j))
		}
	}
}
