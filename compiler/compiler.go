// Package compiler turns a session.GraphDef into a runtime graphdsp.Graph:
// it instantiates every node from the registry, wires the declared
// connections, and orders the result via Graph.Prepare (§4.8).
package compiler

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cjbrigato/go-vtm/graphdsp"
	"github.com/cjbrigato/go-vtm/ids"
	"github.com/cjbrigato/go-vtm/registry"
	"github.com/cjbrigato/go-vtm/session"
)

// ErrUnknownNodeType is returned when a NodeDef names a type the registry
// has no descriptor for.
var ErrUnknownNodeType = errors.New("compiler: unknown node type")

// ErrInvalidConnection is returned when a ConnectionDef references a node
// id absent from the GraphDef.
var ErrInvalidConnection = errors.New("compiler: connection references unknown node")

// Compile builds a fresh graphdsp.Graph from def, sized for channels/
// maxBlock/maxVoices, using reg to resolve each node's factory. Nodes are
// instantiated in def.SortedNodeIDs order for a deterministic graph index
// assignment across recompiles of an unchanged def (§4.8 step 1).
func Compile(def *session.GraphDef, reg *registry.Registry, channels, maxBlock, maxVoices int, sampleRate float64, log zerolog.Logger) (*graphdsp.Graph, error) {
	g := graphdsp.NewGraph(channels, maxBlock, maxVoices, log)

	for _, nodeID := range def.SortedNodeIDs() {
		nd := def.Nodes[nodeID]
		desc, ok := reg.Lookup(nd.TypeID)
		if !ok {
			return nil, fmt.Errorf("%w: node %d has type %d", ErrUnknownNodeType, nd.ID, nd.TypeID)
		}
		g.AddNode(nd.ID, nd.TypeID, desc.Poly, desc.Factory)
		for paramID, value := range nd.Params {
			g.SetParamByID(nd.ID, paramID, value)
		}
	}

	for _, conn := range def.Connections {
		srcIdx, ok := g.IndexOf(conn.SrcNode)
		if !ok {
			return nil, fmt.Errorf("%w: source node %d", ErrInvalidConnection, conn.SrcNode)
		}
		dstIdx, ok := g.IndexOf(conn.DstNode)
		if !ok {
			return nil, fmt.Errorf("%w: destination node %d", ErrInvalidConnection, conn.DstNode)
		}
		g.Connect(srcIdx, dstIdx)
	}

	if def.OutputNode != ids.NoNode {
		if idx, ok := g.IndexOf(def.OutputNode); ok {
			g.SetOutputIndex(idx)
		} else {
			return nil, fmt.Errorf("%w: output node %d", ErrInvalidConnection, def.OutputNode)
		}
	}

	g.Prepare(sampleRate)
	return g, nil
}

// BuildTrackChain wires a per-track [instrument -> gain -> pan] processing
// chain into def and returns the pan node's id, the point downstream code
// should connect into a master bus (§6's session-view routing convention).
// instrument is expected to already exist in def (the track's Target node).
func BuildTrackChain(def *session.GraphDef, instrument ids.NodeID, volume, pan float64) ids.NodeID {
	gainNode := def.AddNode(ids.TypeGain, 0, 0)
	def.SetParam(gainNode, ids.ParamGain, volume)
	def.Connect(instrument, 0, gainNode, 0)

	panNode := def.AddNode(ids.TypePan, 0, 0)
	def.SetParam(panNode, ids.ParamPan, pan)
	def.Connect(gainNode, 0, panNode, 0)

	return panNode
}

// BuildMasterBus wires every track output in trackOutputs into a shared
// Gain node (the master bus) feeding an OutputMixer designated as the
// graph's output, completing the routing convention from BuildTrackChain.
func BuildMasterBus(def *session.GraphDef, trackOutputs []ids.NodeID, masterGain float64) ids.NodeID {
	busNode := def.AddNode(ids.TypeGain, 0, 0)
	def.SetParam(busNode, ids.ParamGain, masterGain)
	for _, out := range trackOutputs {
		def.Connect(out, 0, busNode, 0)
	}

	mixerNode := def.AddNode(ids.TypeOutputMixer, 0, 0)
	def.Connect(busNode, 0, mixerNode, 0)
	def.SetOutputNode(mixerNode)

	return mixerNode
}
