package session

import "github.com/cjbrigato/go-vtm/scheduler"

// Session is the complete editor-thread state: the declarative patch
// graph, the arrangement of clips/tracks/scenes, and a mirror of the
// musical transport, owned exclusively by the editor thread (§5).
type Session struct {
	Graph       *GraphDef
	Arrangement *Arrangement
	Transport   scheduler.Transport
}

// NewSession returns an empty session at the given tempo/sample rate.
func NewSession(bpm, sampleRate float64) *Session {
	return &Session{
		Graph:       NewGraphDef(),
		Arrangement: NewArrangement(),
		Transport:   scheduler.Transport{BPM: bpm, SampleRate: sampleRate},
	}
}
