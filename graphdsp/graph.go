package graphdsp

import (
	"github.com/rs/zerolog"

	"github.com/cjbrigato/go-vtm/ids"
	"github.com/cjbrigato/go-vtm/voice"
)

// graphNode is one compiled node: its instance(s), its buffer, its fan-in
// list (as graph indices) and the silent flag it reported last block.
type graphNode struct {
	nodeID  ids.NodeID
	typeID  ids.NodeTypeID
	poly    Polyphony
	global  Node   // set when poly == Global
	voices  []Node // len == maxVoices when poly == PerVoice
	inputs  []int  // graph indices, in connection order, deduped
	buf     nodeBuffer
	silent  bool

	// inputScratch is the Global path's reusable []Buffer argument to
	// Node.Process, sized to len(inputs) once Prepare runs. perVoiceScratch
	// is the PerVoice equivalent, one slice per voice slot so nothing in
	// Process ever calls make().
	inputScratch    []Buffer
	perVoiceScratch [][]Buffer
}

// nodeBuffer is the per-node storage: one Global region, or maxVoices
// PerVoice regions plus a scratch region used to collapse them for a
// Global consumer.
type nodeBuffer struct {
	global   Buffer
	perVoice []Buffer
	scratch  Buffer
}

// Graph owns nodes, their buffers, the topological evaluation order, the
// NodeId->index map and the current block's voice-deactivation votes.
type Graph struct {
	nodes       []*graphNode
	idToIndex   map[ids.NodeID]int
	order       []int
	outputIndex int
	channels    int
	maxBlock    int
	maxVoices   int
	sampleRate  float64

	voicesToDeactivate []ids.VoiceID

	log zerolog.Logger
}

// NewGraph constructs an empty graph sized for the given channel count,
// maximum block size and maximum voice count. Buffers for every node added
// afterwards are sized from these values and never reallocated.
func NewGraph(channels, maxBlock, maxVoices int, log zerolog.Logger) *Graph {
	return &Graph{
		idToIndex:          make(map[ids.NodeID]int),
		channels:           channels,
		maxBlock:           maxBlock,
		maxVoices:          maxVoices,
		outputIndex:        -1,
		voicesToDeactivate: make([]ids.VoiceID, 0, maxVoices),
		log:                log,
	}
}

// AddNode instantiates factory (once for Global, maxVoices times for
// PerVoice) and appends it with its buffer. Returns the graph index.
func (g *Graph) AddNode(nodeID ids.NodeID, typeID ids.NodeTypeID, poly Polyphony, factory Factory) int {
	gn := &graphNode{nodeID: nodeID, typeID: typeID, poly: poly}

	switch poly {
	case Global:
		gn.global = factory()
		gn.buf.global = NewBuffer(g.channels, g.maxBlock)
	case PerVoice:
		gn.voices = make([]Node, g.maxVoices)
		for i := range gn.voices {
			gn.voices[i] = factory()
		}
		gn.buf.perVoice = make([]Buffer, g.maxVoices)
		for i := range gn.buf.perVoice {
			gn.buf.perVoice[i] = NewBuffer(g.channels, g.maxBlock)
		}
		gn.buf.scratch = NewBuffer(g.channels, g.maxBlock)
	}

	idx := len(g.nodes)
	g.nodes = append(g.nodes, gn)
	g.idToIndex[nodeID] = idx
	return idx
}

// IndexOf resolves a NodeId to its graph index, or false if unknown.
func (g *Graph) IndexOf(id ids.NodeID) (int, bool) {
	idx, ok := g.idToIndex[id]
	return idx, ok
}

// Connect adds srcIdx as an input to dstIdx, deduplicating; connecting an
// already-connected pair is a silent no-op.
func (g *Graph) Connect(srcIdx, dstIdx int) {
	dst := g.nodes[dstIdx]
	for _, in := range dst.inputs {
		if in == srcIdx {
			return
		}
	}
	dst.inputs = append(dst.inputs, srcIdx)
}

// SetOutputIndex designates which node's buffer is the graph's final
// output.
func (g *Graph) SetOutputIndex(idx int) { g.outputIndex = idx }

// OutputIndex returns the current output node's graph index, or -1.
func (g *Graph) OutputIndex() int { return g.outputIndex }

// NodeCount reports how many nodes the graph holds.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// Order returns the current evaluation order (graph indices).
func (g *Graph) Order() []int { return g.order }

// Prepare performs Kahn's topological sort (sources first) and calls
// Prepare(sr, maxBlock) on every node instance. If cycles remain — not
// expected, the UI prevents them — unprocessed nodes are appended in
// index order and a warning is logged rather than panicking (§4.2,§7).
func (g *Graph) Prepare(sampleRate float64) {
	g.sampleRate = sampleRate
	n := len(g.nodes)

	// indegree[i] counts how many inputs node i has among graph nodes.
	indegree := make([]int, n)
	for i, gn := range g.nodes {
		indegree[i] = len(gn.inputs)
	}

	// dependents[j] lists nodes that have j as an input.
	dependents := make([][]int, n)
	for i, gn := range g.nodes {
		for _, in := range gn.inputs {
			dependents[in] = append(dependents[in], i)
		}
	}

	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]int, 0, n)
	visited := make([]bool, n)
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, i)
		visited[i] = true
		for _, dep := range dependents[i] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) != n {
		// Graph cycle: should not occur, the UI must prevent it. Append
		// the remaining nodes in index order so the engine still has a
		// total order to walk; output will be wrong until the graph is
		// edited, per §7.
		g.log.Warn().Int("ordered", len(order)).Int("total", n).Msg("graph cycle detected during prepare, appending remaining nodes")
		for i := 0; i < n; i++ {
			if !visited[i] {
				order = append(order, i)
			}
		}
	}
	g.order = order

	for _, gn := range g.nodes {
		if gn.global != nil {
			gn.global.Prepare(sampleRate, g.maxBlock)
		}
		for _, v := range gn.voices {
			v.Prepare(sampleRate, g.maxBlock)
		}

		gn.inputScratch = make([]Buffer, len(gn.inputs))
		if gn.poly == PerVoice {
			gn.perVoiceScratch = make([][]Buffer, g.maxVoices)
			for i := range gn.perVoiceScratch {
				gn.perVoiceScratch[i] = make([]Buffer, len(gn.inputs))
			}
		}
	}

	if g.outputIndex < 0 && n > 0 {
		g.outputIndex = n - 1
	}
}

// HasCycle reports whether the last Prepare detected an unresolved cycle.
// Exposed mainly for tests; production code never panics on this.
func (g *Graph) HasCycle() bool {
	return len(g.order) != len(g.nodes)
}

// Process renders one slice of frames frames starting at samplePos, at the
// given tempo, against alloc's active voices. Clears the deactivation
// votes first, then walks the evaluation order invoking either
// process_global_node or process_per_voice_node per node's polyphony.
func (g *Graph) Process(frames int, samplePos uint64, bpm float64, alloc *voice.Allocator) {
	g.voicesToDeactivate = g.voicesToDeactivate[:0]

	for _, idx := range g.order {
		gn := g.nodes[idx]
		if gn.poly == Global {
			g.processGlobalNode(gn, frames, samplePos, bpm)
		} else {
			g.processPerVoiceNode(gn, frames, samplePos, bpm, alloc)
		}
	}
}

func (g *Graph) processGlobalNode(gn *graphNode, frames int, samplePos uint64, bpm float64) {
	gn.buf.global.ClearFrames(frames)

	if len(gn.inputs) > 0 {
		allSilent := true
		for _, in := range gn.inputs {
			if !g.nodes[in].silent {
				allSilent = false
				break
			}
		}
		if allSilent {
			gn.silent = true
			return
		}
	}

	inputs := gn.inputScratch
	for i, in := range gn.inputs {
		src := g.nodes[in]
		if src.poly == PerVoice {
			src.buf.scratch.ClearFrames(frames)
			for _, vb := range src.buf.perVoice {
				vb.MixInto(src.buf.scratch, frames)
			}
			inputs[i] = src.buf.scratch
		} else {
			inputs[i] = src.buf.global
		}
	}

	ctx := ProcessContext{Frames: frames, SamplePos: samplePos, BPM: bpm, SampleRate: g.sampleRate}
	gn.silent = gn.global.Process(ctx, inputs, gn.buf.global)
}

func (g *Graph) processPerVoiceNode(gn *graphNode, frames int, samplePos uint64, bpm float64, alloc *voice.Allocator) {
	for _, vb := range gn.buf.perVoice {
		vb.ClearFrames(frames)
	}

	alloc.ForEachActive(func(vctx voice.Context) {
		inputs := gn.perVoiceScratch[vctx.ID]
		for i, in := range gn.inputs {
			src := g.nodes[in]
			if src.poly == PerVoice {
				inputs[i] = src.buf.perVoice[vctx.ID]
			} else {
				inputs[i] = src.buf.global
			}
		}

		ctx := ProcessContext{Frames: frames, SamplePos: samplePos, BPM: bpm, SampleRate: g.sampleRate, Voice: vctx}
		silent := gn.voices[vctx.ID].Process(ctx, inputs, gn.buf.perVoice[vctx.ID])

		inSet := false
		for _, id := range g.voicesToDeactivate {
			if id == vctx.ID {
				inSet = true
				break
			}
		}
		if silent && !inSet {
			g.voicesToDeactivate = append(g.voicesToDeactivate, vctx.ID)
		} else if !silent && inSet {
			for i, id := range g.voicesToDeactivate {
				if id == vctx.ID {
					g.voicesToDeactivate = append(g.voicesToDeactivate[:i], g.voicesToDeactivate[i+1:]...)
					break
				}
			}
		}
	})

	gn.silent = false
}

// VoicesToDeactivate returns the voices every per-voice node agreed are
// silent this block, drained by the Engine after process_plan completes.
func (g *Graph) VoicesToDeactivate() []ids.VoiceID {
	return g.voicesToDeactivate
}

// OutputBuffer returns the output node's rendered buffer for the last
// Process call, or the zero Buffer if no output node is set.
func (g *Graph) OutputBuffer() Buffer {
	if g.outputIndex < 0 || g.outputIndex >= len(g.nodes) {
		return Buffer{}
	}
	return g.nodes[g.outputIndex].buf.global
}

// SetParamByID resolves nodeID to its graph index and forwards the value
// to every instance of that node (all maxVoices instances, for a PerVoice type).
// Reports false when nodeID names no node in the graph — e.g. a stale
// ParamChange surviving a Graph swap — so the caller can count the drop.
func (g *Graph) SetParamByID(nodeID ids.NodeID, paramID ids.ParamID, value float64) bool {
	idx, ok := g.idToIndex[nodeID]
	if !ok {
		return false
	}
	gn := g.nodes[idx]
	if gn.global != nil {
		gn.global.SetParam(paramID, value)
	}
	for _, v := range gn.voices {
		v.SetParam(paramID, value)
	}
	return true
}

// StartAudioByID forwards to the AudioPlayer capability of nodeID, if it
// has one. Reports false on an unknown node or a node with no AudioPlayer
// capability, so a caller can count the drop instead of silently losing it.
func (g *Graph) StartAudioByID(nodeID ids.NodeID, audioID ids.AudioID, startSample, durationSamples uint64, gain float32) bool {
	return g.withAudioPlayer(nodeID, func(p AudioPlayer) {
		p.StartAudio(audioID, startSample, durationSamples, gain)
	})
}

// StopAudioByID forwards to the AudioPlayer capability of nodeID.
func (g *Graph) StopAudioByID(nodeID ids.NodeID, audioID ids.AudioID) bool {
	return g.withAudioPlayer(nodeID, func(p AudioPlayer) {
		p.StopAudio(audioID)
	})
}

// LoadAudioByID forwards a decoded source to the AudioPlayer capability of
// nodeID.
func (g *Graph) LoadAudioByID(nodeID ids.NodeID, src AudioSource) bool {
	return g.withAudioPlayer(nodeID, func(p AudioPlayer) {
		p.LoadAudio(src)
	})
}

// UnloadAudioByID forwards an unload to the AudioPlayer capability of
// nodeID, releasing its reference to that pool entry.
func (g *Graph) UnloadAudioByID(nodeID ids.NodeID, audioID ids.AudioID) bool {
	return g.withAudioPlayer(nodeID, func(p AudioPlayer) {
		p.UnloadAudio(audioID)
	})
}

func (g *Graph) withAudioPlayer(nodeID ids.NodeID, fn func(AudioPlayer)) bool {
	idx, ok := g.idToIndex[nodeID]
	if !ok {
		return false
	}
	gn := g.nodes[idx]
	if gn.global != nil {
		if p, ok := gn.global.(AudioPlayer); ok {
			fn(p)
			return true
		}
		return false
	}
	found := false
	for _, v := range gn.voices {
		if p, ok := v.(AudioPlayer); ok {
			fn(p)
			found = true
		}
	}
	return found
}

// Reset clears DSP state on every node instance, used by Engine.Reset.
func (g *Graph) Reset() {
	for _, gn := range g.nodes {
		if gn.global != nil {
			gn.global.Reset()
		}
		for _, v := range gn.voices {
			v.Reset()
		}
	}
}
