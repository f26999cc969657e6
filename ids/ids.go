// Package ids holds the small integer identifier types shared across every
// layer of the engine, so that graph, session, scheduler and bridge code can
// refer to the same node without importing each other.
package ids

import "math"

// NodeID identifies a node within a GraphDef or runtime Graph. Stable across
// edits for the lifetime of a Session.
type NodeID uint32

// NoNode is the sentinel "no node" value at the binding boundary.
const NoNode NodeID = math.MaxUint32

// NodeTypeID identifies a registered node type (oscillator, ADSR, filter...).
type NodeTypeID uint32

// ParamID identifies a parameter within a node type's param space.
type ParamID uint32

// AudioID identifies an entry in the audio pool.
type AudioID uint32

// NoAudio is the sentinel "no audio" value.
const NoAudio AudioID = math.MaxUint32

// ClipID identifies a clip definition within an Arrangement.
type ClipID uint32

// NoClip is the sentinel "empty slot" value for a track's clip slots.
const NoClip ClipID = math.MaxUint32

// TrackID identifies a track within an Arrangement.
type TrackID uint32

// SceneID identifies a scene within an Arrangement.
type SceneID uint32

// VoiceID is a dense index into the voice pool, {0..maxVoices-1}.
type VoiceID uint32

// Builtin node types bundled with the default registry (§6 of the design:
// oscillators, ADSR, effects, filters, LFO, audio player, output mixer).
const (
	TypeOscSine NodeTypeID = iota
	TypeOscSaw
	TypeOscSquare
	TypeOscTriangle
	TypeADSR
	TypeGain
	TypePan
	TypeDelay
	TypeReverb
	TypeFilterLP
	TypeFilterHP
	TypeFilterBP
	TypeFilterNotch
	TypeLFO
	TypeAudioPlayer
	TypeOutputMixer

	// userTypeRangeStart is where host/user-registered node types begin.
	userTypeRangeStart
)

// UserTypeRangeStart is the first NodeTypeID available for host-registered
// node types, keeping the bundled registry's ids stable.
const UserTypeRangeStart = userTypeRangeStart

// Builtin parameter ids, shared across node types that expose the same kind
// of control so hosts can build generic UI without per-type knowledge.
const (
	ParamFrequency ParamID = iota
	ParamAmplitude
	ParamAttack
	ParamDecay
	ParamSustain
	ParamRelease
	ParamGain
	ParamPan
	ParamDelayTime
	ParamFeedback
	ParamMix
	ParamCutoff
	ParamResonance
	ParamRate
	ParamDepth
)
