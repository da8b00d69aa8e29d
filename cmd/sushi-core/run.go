package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/justyntemme/sushi-core/pkg/audiofrontend"
	"github.com/justyntemme/sushi-core/pkg/config"
	"github.com/justyntemme/sushi-core/pkg/ctrlevent"
	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
	"github.com/justyntemme/sushi-core/pkg/framework/param"
	"github.com/justyntemme/sushi-core/pkg/framework/plugin"
	"github.com/justyntemme/sushi-core/pkg/graph"
	"github.com/justyntemme/sushi-core/pkg/graph/internalfx"
	"github.com/justyntemme/sushi-core/pkg/metrics"
	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

func runCommand() *cobra.Command {
	var configPath string
	var metricsAddr string
	var offlineIn string
	var offlineOut string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load a configuration and run the engine until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(configPath, metricsAddr, offlineIn, offlineOut)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", viper.GetString("config"), "Path to the JSON configuration file")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", viper.GetString("metrics-addr"), "Address to serve Prometheus metrics on (empty disables)")
	cmd.Flags().StringVar(&offlineIn, "offline-in", viper.GetString("offline-in"), "PCM file to read master input from when audio.backend is \"offline\"")
	cmd.Flags().StringVar(&offlineOut, "offline-out", viper.GetString("offline-out"), "PCM file to write master output to when audio.backend is \"offline\"")
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		fmt.Fprintf(os.Stderr, "error binding flags: %v\n", err)
	}

	return cmd
}

func runEngine(configPath, metricsAddr, offlineIn, offlineOut string) error {
	if configPath == "" {
		return fmt.Errorf("a --config path is required")
	}

	doc, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{ReportTimestamp: true, Prefix: "sushi-core"})

	backend, err := openBackend(doc, offlineIn, offlineOut)
	if err != nil {
		return err
	}
	defer backend.Close()

	reg := prometheus.NewRegistry()
	metricsReg := metrics.NewRegistry(reg)

	toRT := rtevent.NewDefaultRing()
	fromRT := rtevent.NewDefaultRing()

	registry := graph.NewRegistry()
	engine := graph.NewEngine(registry, doc.Audio.SampleRate, doc.Audio.ChunkSize, toRT, fromRT)
	engine.SetMetrics(metricsReg)

	dispatcherCfg := ctrlevent.DefaultConfig(doc.Audio.SampleRate, doc.Audio.ChunkSize)
	dispatcher := ctrlevent.NewDispatcher(dispatcherCfg, toRT, fromRT, logger)
	dispatcher.SetMetrics(metricsReg)

	if err := buildTopology(doc, registry, toRT, fromRT); err != nil {
		return err
	}

	dispatcher.Run()
	defer dispatcher.Stop()

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		server := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server stopped", "err", err)
			}
		}()
		defer server.Close()
		logger.Info("serving metrics", "addr", metricsAddr)
	}

	logger.Info("sushi-core running", "sampleRate", doc.Audio.SampleRate, "chunkSize", doc.Audio.ChunkSize, "backend", doc.Audio.Backend)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	in := buffer.NewSampleBuffer(2, doc.Audio.ChunkSize)
	out := buffer.NewSampleBuffer(2, doc.Audio.ChunkSize)

	driverQuit := make(chan struct{})
	driverDone := make(chan struct{})
	go func() {
		defer close(driverDone)
		for {
			select {
			case <-driverQuit:
				return
			default:
			}
			if err := backend.Read(in); err != nil {
				if errors.Is(err, io.EOF) {
					logger.Info("offline input exhausted, shutting down")
					close(driverQuit)
					return
				}
				logger.Error("backend read failed", "err", err)
				close(driverQuit)
				return
			}
			engine.ProcessChunk(in, out)
			if err := backend.Write(out); err != nil {
				logger.Error("backend write failed", "err", err)
				close(driverQuit)
				return
			}
		}
	}()

	select {
	case <-sigc:
	case <-driverDone:
	}
	select {
	case <-driverQuit:
	default:
		close(driverQuit)
	}
	<-driverDone
	logger.Info("shutting down")
	return nil
}

// openBackend selects the audio I/O backend named by doc.Audio.Backend.
// "offline" reads from --offline-in and writes to --offline-out, each only
// when given (with no input file the first Read reports io.EOF); "realtime" runs
// against whatever drives ProcessChunk directly (a no-op placeholder here,
// since this build has no live device I/O layer of its own).
func openBackend(doc *config.Document, offlineIn, offlineOut string) (audiofrontend.Backend, error) {
	switch doc.Audio.Backend {
	case "offline":
		var r *os.File
		var w *os.File
		var err error
		if offlineIn != "" {
			if r, err = os.Open(offlineIn); err != nil {
				return nil, &config.LoadError{Status: config.StatusFailedAudioFrontendInitialization, Err: fmt.Errorf("opening --offline-in %q: %w", offlineIn, err)}
			}
		}
		if offlineOut != "" {
			if w, err = os.Create(offlineOut); err != nil {
				return nil, &config.LoadError{Status: config.StatusFailedAudioFrontendInitialization, Err: fmt.Errorf("creating --offline-out %q: %w", offlineOut, err)}
			}
		}
		return &closingOfflineBackend{OfflineBackend: audiofrontend.NewOfflineBackend(r, w, 2), r: r, w: w}, nil
	case "realtime":
		return audiofrontend.NewRealtimeBackend(), nil
	default:
		return nil, &config.LoadError{Status: config.StatusFailedAudioFrontendMissing, Err: fmt.Errorf("unknown audio backend %q", doc.Audio.Backend)}
	}
}

// closingOfflineBackend adds *os.File lifecycle management on top of
// audiofrontend.OfflineBackend, which only owns the io.Reader/io.Writer
// interfaces, not their Close methods.
type closingOfflineBackend struct {
	*audiofrontend.OfflineBackend
	r, w *os.File
}

func (b *closingOfflineBackend) Close() error {
	var err error
	if b.r != nil {
		err = b.r.Close()
	}
	if b.w != nil {
		if wErr := b.w.Close(); err == nil {
			err = wErr
		}
	}
	return err
}

// buildTopology installs every configured track, its processor chain, and
// its optional master limiter by posting the same topology commands the
// control plane would, rather than reaching into the engine's internals
// directly. It is transactional: on any failure partway through, every
// track/processor registered and every event pushed so far this call is
// reversed before the error is returned, so a malformed config never leaves
// a partial topology live.
func buildTopology(doc *config.Document, registry *graph.Registry, toRT, fromRT *rtevent.Ring) error {
	var eventID uint32
	nextEventID := func() uint32 { eventID++; return eventID }

	var registeredTrackIDs []uint32
	var registeredProcessorIDs []uint32
	var pushedTrackEvents []uint32
	type pushedProcEvent struct{ procID, trackID uint32 }
	var pushedProcessorEvents []pushedProcEvent

	rollback := func() {
		for i := len(pushedProcessorEvents) - 1; i >= 0; i-- {
			pe := pushedProcessorEvents[i]
			toRT.Push(rtevent.MakeRemoveProcessorFromTrackEvent(nextEventID(), pe.procID, pe.trackID))
		}
		for i := len(pushedTrackEvents) - 1; i >= 0; i-- {
			toRT.Push(rtevent.MakeRemoveTrackEvent(nextEventID(), pushedTrackEvents[i]))
		}
		for i := len(registeredProcessorIDs) - 1; i >= 0; i-- {
			registry.UnregisterProcessor(registeredProcessorIDs[i])
		}
		for i := len(registeredTrackIDs) - 1; i >= 0; i-- {
			registry.UnregisterTrack(registeredTrackIDs[i])
		}
	}

	fail := func(status config.Status, err error) error {
		rollback()
		return &config.LoadError{Status: status, Err: err}
	}

	for _, trCfg := range doc.Tracks {
		trackID := registry.AllocateID()
		track := graph.NewTrack(trackID, plugin.Info{Name: trCfg.Name}, trCfg.Channels, doc.Audio.SampleRate, fromRT)
		registry.RegisterTrack(track)
		registeredTrackIDs = append(registeredTrackIDs, trackID)

		if !toRT.Push(rtevent.MakeAddTrackEvent(nextEventID(), trackID)) {
			return fail(config.StatusFailedLoadTracks, fmt.Errorf("topology ring full adding track %q", trCfg.Name))
		}
		pushedTrackEvents = append(pushedTrackEvents, trackID)

		for _, procCfg := range trCfg.Processors {
			proc, err := instantiateProcessor(procCfg, trCfg.Channels, doc.Audio.SampleRate, fromRT)
			if err != nil {
				return fail(config.StatusFailedLoadTracks, fmt.Errorf("track %q: %w", trCfg.Name, err))
			}
			// init failure returns a processor status; the processor is not
			// inserted, and since the whole batch rolls back, neither is
			// anything already built ahead of it.
			if err := proc.Init(doc.Audio.SampleRate); err != nil {
				return fail(config.StatusFailedLoadTracks, fmt.Errorf("track %q: processor %q failed to initialize: %w", trCfg.Name, procCfg.UID, err))
			}

			procID := registry.AllocateID()
			proc.SetID(procID)
			registry.RegisterProcessor(proc)
			registeredProcessorIDs = append(registeredProcessorIDs, procID)

			for paramName, value := range procCfg.Params {
				applyNamedParameter(proc, paramName, value)
			}

			if !toRT.Push(rtevent.MakeAddProcessorToTrackEvent(nextEventID(), procID, trackID)) {
				return fail(config.StatusFailedLoadTracks, fmt.Errorf("topology ring full adding processor %q to track %q", procCfg.UID, trCfg.Name))
			}
			pushedProcessorEvents = append(pushedProcessorEvents, pushedProcEvent{procID, trackID})
		}

		if trCfg.Limiter != nil {
			lim := internalfx.NewMasterLimiter(trCfg.Channels, doc.Audio.SampleRate, fromRT)
			if err := lim.Init(doc.Audio.SampleRate); err != nil {
				return fail(config.StatusFailedLoadTracks, fmt.Errorf("track %q: limiter failed to initialize: %w", trCfg.Name, err))
			}
			limID := registry.AllocateID()
			lim.SetID(limID)
			registry.RegisterProcessor(lim)
			registeredProcessorIDs = append(registeredProcessorIDs, limID)

			for paramName, value := range trCfg.Limiter.Params {
				applyNamedParameter(lim, paramName, value)
			}
			track.SetLimiter(lim)
		}
	}
	return nil
}

// instantiateProcessor maps a configured processor UID onto one of the
// built-in internal plugins. Unknown UIDs are a configuration error: this
// build has no external plugin loader, only the internal catalogue.
func instantiateProcessor(cfg config.ProcessorConfig, channels int, sampleRate float64, toNonRT *rtevent.Ring) (graph.Processor, error) {
	switch cfg.UID {
	case "sushi.gain":
		return internalfx.NewGain(channels, toNonRT), nil
	case "sushi.mono_summing":
		return internalfx.NewMonoSumming(channels, toNonRT), nil
	case "sushi.transposer":
		return internalfx.NewTransposer(toNonRT), nil
	case "sushi.control_to_cv":
		return internalfx.NewControlToCV(toNonRT), nil
	case "sushi.cv_to_control":
		return internalfx.NewCVToControl(toNonRT), nil
	case "sushi.sample_player":
		return internalfx.NewSamplePlayer(sampleRate, toNonRT), nil
	case "sushi.dynamics":
		return internalfx.NewDynamics(channels, sampleRate, toNonRT), nil
	case "sushi.reverb":
		return internalfx.NewReverb(sampleRate, toNonRT), nil
	case "sushi.tone_filter":
		return internalfx.NewToneFilter(channels, sampleRate, toNonRT), nil
	case "sushi.distortion":
		return internalfx.NewDistortion(channels, toNonRT), nil
	case "sushi.chorus":
		return internalfx.NewChorus(sampleRate, toNonRT), nil
	case "sushi.autopan":
		return internalfx.NewAutoPan(sampleRate, toNonRT), nil
	case "sushi.delay":
		return internalfx.NewDelay(channels, sampleRate, toNonRT), nil
	case "sushi.dc_blocker":
		return internalfx.NewDCBlocker(channels, sampleRate, toNonRT), nil
	case "sushi.test_oscillator":
		return internalfx.NewTestOscillator(channels, sampleRate, toNonRT), nil
	case "sushi.meter":
		return internalfx.NewMeter(channels, sampleRate, toNonRT), nil
	default:
		return nil, fmt.Errorf("unknown processor uid %q", cfg.UID)
	}
}

// applyNamedParameter resolves a configured parameter name against the
// processor's registry and seeds its initial plain value.
func applyNamedParameter(proc graph.Processor, name string, value float64) {
	params := proc.Parameters()
	if params == nil {
		return
	}
	for _, p := range params.All() {
		if p.Name == name {
			setPlainValue(p, value)
			return
		}
	}
}

func setPlainValue(p *param.Parameter, value float64) {
	p.SetPlainValue(value)
}
