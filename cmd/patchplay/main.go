// Command patchplay builds a small synth patch, compiles it, and streams
// it live through oto — a minimal end-to-end exercise of compiler,
// engine, bridge and scheduler together (§4.6-§4.10).
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	vtmaudio "github.com/cjbrigato/go-vtm/audio"
	"github.com/cjbrigato/go-vtm/bridge"
	"github.com/cjbrigato/go-vtm/compiler"
	"github.com/cjbrigato/go-vtm/engine"
	"github.com/cjbrigato/go-vtm/ids"
	"github.com/cjbrigato/go-vtm/internal/loadutil"
	"github.com/cjbrigato/go-vtm/plan"
	"github.com/cjbrigato/go-vtm/registry"
	"github.com/cjbrigato/go-vtm/scheduler"
	"github.com/cjbrigato/go-vtm/session"
)

const (
	sampleRate = 48000
	blockSize  = 512
	maxVoices  = 16
)

func main() {
	bpm := flag.Float64("bpm", 120, "tempo in beats per minute")
	samplePath := flag.String("sample", "", "optional WAV file to load into an audio-player node and trigger once the scale finishes")
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	sess := session.NewSession(*bpm, sampleRate)
	reg := registry.NewBundled()

	osc := sess.Graph.AddNode(ids.TypeOscSaw, 0, 0)
	env := sess.Graph.AddNode(ids.TypeADSR, 0, 100)
	sess.Graph.Connect(osc, 0, env, 0)
	sess.Graph.SetParam(env, ids.ParamAttack, 0.01)
	sess.Graph.SetParam(env, ids.ParamDecay, 0.15)
	sess.Graph.SetParam(env, ids.ParamSustain, 0.6)
	sess.Graph.SetParam(env, ids.ParamRelease, 0.3)

	panID := compiler.BuildTrackChain(sess.Graph, env, 0.8, 0.0)

	audioPlayerID := sess.Graph.AddNode(ids.TypeAudioPlayer, 0, 200)

	mixerID := compiler.BuildMasterBus(sess.Graph, []ids.NodeID{panID, audioPlayerID}, 1.0)
	sess.Graph.SetOutputNode(mixerID)

	g, err := compiler.Compile(sess.Graph, reg, 2, blockSize, maxVoices, sampleRate, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compile: %v\n", err)
		os.Exit(1)
	}

	eng := engine.NewEngine(g, maxVoices, log)
	handoff := plan.NewHandoff()
	commands := make(chan bridge.Command, 8)
	results := make(chan bridge.ResultEvent, 8)
	engineHandle := bridge.NewEngineHandle(eng, commands, results, handoff)
	sessionHandle := bridge.NewSessionHandle(sess, commands, results)
	sched := scheduler.NewScheduler(*bpm, sampleRate, log)

	sampleAudioID := ids.NoAudio
	var sampleFrames uint64
	if *samplePath != "" {
		id, err := loadutil.LoadWAVIntoPool(*samplePath, audioPlayerID, sessionHandle)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load sample: %v\n", err)
			os.Exit(1)
		}
		engineHandle.ProcessCommands()
		sampleAudioID = id
		if entry, ok := sess.Arrangement.AudioPool.Get(id); ok {
			sampleFrames = uint64(entry.Frames)
		}
		for _, r := range sessionHandle.PollResults() {
			if r.Kind == bridge.ResultError {
				fmt.Fprintf(os.Stderr, "load sample: %v\n", r.Err)
			}
		}
	}

	pb, err := vtmaudio.NewPlayback(engineHandle, sched, handoff, sampleRate, blockSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "playback init: %v\n", err)
		os.Exit(1)
	}

	scaleNotes := []int{60, 62, 64, 65, 67, 69, 71, 72}
	beatsPerNote := 0.5
	totalBeats := float64(len(scaleNotes)) * beatsPerNote

	musicalEvents := func() []scheduler.MusicalEvent {
		var evs []scheduler.MusicalEvent
		for i, note := range scaleNotes {
			start := float64(i) * beatsPerNote
			evs = append(evs,
				scheduler.MusicalEvent{Kind: plan.NoteOn, Beat: start, Note: note, Velocity: 0.9},
				scheduler.MusicalEvent{Kind: plan.NoteOff, Beat: start + beatsPerNote*0.9, Note: note},
			)
		}
		if sampleAudioID != ids.NoAudio {
			evs = append(evs, scheduler.MusicalEvent{
				Kind: plan.AudioStart, Beat: totalBeats, NodeID: audioPlayerID,
				AudioID: sampleAudioID, StartSample: 0, DurationSamples: sampleFrames, Gain: 1.0,
			})
		}
		return evs
	}

	fmt.Printf("patchplay: %d BPM, %.1f-beat scale, Ctrl+C to stop\n", int(*bpm), totalBeats)

	pb.Play(musicalEvents)
	defer pb.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		pb.Stop()
	}()

	for pb.IsPlaying() {
		time.Sleep(100 * time.Millisecond)
	}
}
