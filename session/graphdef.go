// Package session holds the editor-thread declarative state: the patch
// graph definition, the arrangement of clips/tracks/scenes, and the
// transport — everything the Bridge mirrors optimistically and the
// Compiler turns into a runtime graphdsp.Graph (§3).
package session

import "github.com/cjbrigato/go-vtm/ids"

// NodeDef is one node in the declarative patch graph: a stable id, its
// type, a UI position, a sparse param value map, and an optional label.
type NodeDef struct {
	ID       ids.NodeID
	TypeID   ids.NodeTypeID
	X, Y     float64
	Params   map[ids.ParamID]float64
	Label    string
}

// ConnectionDef is one edge (srcNode -> dstNode); the compiler dedupes per
// destination since the runtime graph tracks node->node, not port->port.
type ConnectionDef struct {
	SrcNode ids.NodeID
	SrcPort int
	DstNode ids.NodeID
	DstPort int
}

// GraphDef is the full declarative patch: nodes, connections (in the order
// they were made, for deterministic dedupe), and an optional explicit
// output node.
type GraphDef struct {
	Nodes       map[ids.NodeID]*NodeDef
	Connections []ConnectionDef
	OutputNode  ids.NodeID // ids.NoNode if unset
	nextID      ids.NodeID
}

// NewGraphDef returns an empty GraphDef with OutputNode unset.
func NewGraphDef() *GraphDef {
	return &GraphDef{
		Nodes:      make(map[ids.NodeID]*NodeDef),
		OutputNode: ids.NoNode,
	}
}

// AddNode allocates a fresh NodeId and inserts a NodeDef of the given type
// at (x, y).
func (gd *GraphDef) AddNode(typeID ids.NodeTypeID, x, y float64) ids.NodeID {
	id := gd.nextID
	gd.nextID++
	gd.Nodes[id] = &NodeDef{ID: id, TypeID: typeID, X: x, Y: y, Params: make(map[ids.ParamID]float64)}
	return id
}

// RemoveNode deletes a node and every connection touching it.
func (gd *GraphDef) RemoveNode(id ids.NodeID) {
	delete(gd.Nodes, id)
	kept := gd.Connections[:0]
	for _, c := range gd.Connections {
		if c.SrcNode != id && c.DstNode != id {
			kept = append(kept, c)
		}
	}
	gd.Connections = kept
	if gd.OutputNode == id {
		gd.OutputNode = ids.NoNode
	}
}

// Connect records an edge. Idempotent: connecting an existing (src,
// srcPort, dst, dstPort) tuple is a silent no-op, matching the Graph's own
// dedupe rule (§8's idempotence property).
func (gd *GraphDef) Connect(src ids.NodeID, srcPort int, dst ids.NodeID, dstPort int) {
	for _, c := range gd.Connections {
		if c.SrcNode == src && c.SrcPort == srcPort && c.DstNode == dst && c.DstPort == dstPort {
			return
		}
	}
	gd.Connections = append(gd.Connections, ConnectionDef{SrcNode: src, SrcPort: srcPort, DstNode: dst, DstPort: dstPort})
}

// Disconnect removes a matching edge, if any.
func (gd *GraphDef) Disconnect(src ids.NodeID, srcPort int, dst ids.NodeID, dstPort int) {
	kept := gd.Connections[:0]
	for _, c := range gd.Connections {
		if c.SrcNode == src && c.SrcPort == srcPort && c.DstNode == dst && c.DstPort == dstPort {
			continue
		}
		kept = append(kept, c)
	}
	gd.Connections = kept
}

// SetOutputNode designates the graph's output node.
func (gd *GraphDef) SetOutputNode(id ids.NodeID) { gd.OutputNode = id }

// SetParam stores a param value in a node's sparse value map.
func (gd *GraphDef) SetParam(id ids.NodeID, paramID ids.ParamID, value float64) {
	if n, ok := gd.Nodes[id]; ok {
		n.Params[paramID] = value
	}
}

// Clear removes every node and connection and unsets the output node. The
// id counter is not reset, so node ids are never reused.
func (gd *GraphDef) Clear() {
	gd.Nodes = make(map[ids.NodeID]*NodeDef)
	gd.Connections = nil
	gd.OutputNode = ids.NoNode
}

// SortedNodeIDs returns every node id in ascending order, for the
// compiler's deterministic iteration (§4.8 step 1).
func (gd *GraphDef) SortedNodeIDs() []ids.NodeID {
	out := make([]ids.NodeID, 0, len(gd.Nodes))
	for id := range gd.Nodes {
		out = append(out, id)
	}
	// insertion sort is fine here: patch graphs are small (tens of nodes).
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
