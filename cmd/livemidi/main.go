// Command livemidi listens to a hardware MIDI input port and forwards
// note on/off messages straight into a running patch's voice allocator,
// the live-performance counterpart to cmd/patchplay's scripted notes.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	vtmaudio "github.com/cjbrigato/go-vtm/audio"
	"github.com/cjbrigato/go-vtm/bridge"
	"github.com/cjbrigato/go-vtm/compiler"
	"github.com/cjbrigato/go-vtm/engine"
	"github.com/cjbrigato/go-vtm/ids"
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
	portName := flag.String("port", "", "MIDI input port name substring (empty lists ports and exits)")
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	ins := midi.GetInPorts()
	if *portName == "" {
		fmt.Println("available MIDI input ports:")
		for _, in := range ins {
			fmt.Printf("  %s\n", in.String())
		}
		return
	}

	in, err := midi.FindInPort(*portName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "find MIDI input %q: %v\n", *portName, err)
		os.Exit(1)
	}

	sess := session.NewSession(120, sampleRate)
	reg := registry.NewBundled()

	osc := sess.Graph.AddNode(ids.TypeOscSquare, 0, 0)
	env := sess.Graph.AddNode(ids.TypeADSR, 0, 100)
	sess.Graph.Connect(osc, 0, env, 0)
	sess.Graph.SetParam(env, ids.ParamAttack, 0.005)
	sess.Graph.SetParam(env, ids.ParamDecay, 0.1)
	sess.Graph.SetParam(env, ids.ParamSustain, 0.7)
	sess.Graph.SetParam(env, ids.ParamRelease, 0.2)

	panID := compiler.BuildTrackChain(sess.Graph, env, 0.9, 0.0)
	mixerID := compiler.BuildMasterBus(sess.Graph, []ids.NodeID{panID}, 1.0)
	sess.Graph.SetOutputNode(mixerID)

	g, err := compiler.Compile(sess.Graph, reg, 2, blockSize, maxVoices, sampleRate, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compile: %v\n", err)
		os.Exit(1)
	}

	eng := engine.NewEngine(g, maxVoices, log)
	handoff := plan.NewHandoff()
	engineHandle := bridge.NewEngineHandle(eng, nil, nil, handoff)
	sched := scheduler.NewScheduler(120, sampleRate, log)

	pb, err := vtmaudio.NewPlayback(engineHandle, sched, handoff, sampleRate, blockSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "playback init: %v\n", err)
		os.Exit(1)
	}

	// Live note events bypass the scheduled MusicalEvent path entirely:
	// the engine's NoteOn/NoteOff apply immediately, the same RT-safe
	// path a SessionHandle.NoteOn command would take (§4.7).
	noEvents := func() []scheduler.MusicalEvent { return nil }

	stop, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
		var ch, key, vel uint8
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			eng.NoteOn(int(key), float64(vel)/127.0)
		case msg.GetNoteEnd(&ch, &key):
			eng.NoteOff(int(key))
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "listen: %v\n", err)
		os.Exit(1)
	}
	defer stop()

	pb.Play(noEvents)
	defer pb.Stop()

	fmt.Printf("livemidi: listening on %s, Ctrl+C to stop\n", in.String())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
}
