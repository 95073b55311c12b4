// Command dsd-neo runs the digital-voice-decoder engine: it loads
// configuration, wires the hook table, starts the trunking state
// machine's watchdog, and serves Prometheus metrics and the telemetry
// websocket feed until asked to shut down.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	"github.com/arancormonk/dsd-neo-go/internal/bootstrap"
	"github.com/arancormonk/dsd-neo-go/internal/chanplan"
	"github.com/arancormonk/dsd-neo-go/internal/config"
	"github.com/arancormonk/dsd-neo-go/internal/hooks"
	"github.com/arancormonk/dsd-neo-go/internal/ioring"
	"github.com/arancormonk/dsd-neo-go/internal/logbuf"
	"github.com/arancormonk/dsd-neo-go/internal/metrics"
	"github.com/arancormonk/dsd-neo-go/internal/ring"
	dsdruntime "github.com/arancormonk/dsd-neo-go/internal/runtime"
	"github.com/arancormonk/dsd-neo-go/internal/telemetry"
	"github.com/arancormonk/dsd-neo-go/internal/trunk"
	"github.com/arancormonk/dsd-neo-go/internal/trunkapi"
)

func main() {
	outcome := run(os.Args[1:])
	switch outcome.Result {
	case bootstrap.Exit:
		os.Exit(outcome.ProcessCode)
	case bootstrap.Error:
		log.Printf("dsd-neo: startup failed: %v", outcome.Err)
		os.Exit(outcome.ProcessCode)
	}
}

func run(args []string) bootstrap.Outcome {
	fs := flag.NewFlagSet("dsd-neo", flag.ContinueOnError)
	configPath := fs.String("config", "dsd-neo.yaml", "path to the runtime configuration file")
	metricsAddr := fs.String("metrics-addr", ":9125", "address to serve Prometheus metrics on")
	wsAddr := fs.String("ws-addr", ":9126", "address to serve the telemetry websocket on")
	grpcAddr := fs.String("grpc-addr", ":9127", "address to serve the trunk control gRPC API on")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return bootstrap.ErrorOutcome(err)
	}
	if *showVersion {
		fmt.Println("dsd-neo (development build)")
		return bootstrap.ExitOutcome(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return bootstrap.ErrorOutcome(err)
	}

	iqRing := ring.NewIqRing(1 << 16)
	pcmRing := ring.NewPcmRing(1<<16, 8000)

	metricsReg := metrics.NewRegistry()
	eventLog := logbuf.New(2000)
	hub := telemetry.NewHub()

	h := &hooks.Tables{}
	hooks.Install(h)

	resolver := chanplan.NewResolver(&chanplan.IdenTable{})
	policy := trunk.Policy{
		TuneGroupCalls:   cfg.Trunking.TuneGroupCalls,
		TunePrivateCalls: cfg.Trunking.TunePrivateCalls,
		TuneEncCalls:     cfg.Trunking.TuneEncCalls,
		Hangtime:         time.Duration(cfg.Trunking.HangtimeSeconds) * time.Second,
		UseAllowList:     cfg.Trunking.UseAllowList,
	}
	smState := trunk.NewState(resolver, h, policy)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	var rtpConn *net.UDPConn
	if cfg.IQSource.Enable {
		addr, err := net.ResolveUDPAddr("udp4", cfg.IQSource.Addr)
		if err != nil {
			return bootstrap.ErrorOutcome(fmt.Errorf("dsd-neo: rtp source addr: %w", err))
		}
		var iface *net.Interface
		if cfg.IQSource.Interface != "" {
			iface, err = net.InterfaceByName(cfg.IQSource.Interface)
			if err != nil {
				return bootstrap.ErrorOutcome(fmt.Errorf("dsd-neo: rtp source interface: %w", err))
			}
		}
		conn, err := ioring.JoinMulticast(ctx, addr, iface)
		if err != nil {
			return bootstrap.ErrorOutcome(err)
		}
		rtpConn = conn
		rtpReceiver := ioring.NewReceiver(conn, iqRing)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := rtpReceiver.Run(); err != nil {
				log.Printf("dsd-neo: rtp receiver error: %v", err)
			}
		}()
	}

	if cfg.Trunking.Enable {
		watchdogCadence := trunk.ClampWatchdogCadence(time.Duration(cfg.Trunking.WatchdogMs) * time.Millisecond)
		wg.Add(1)
		go func() {
			defer wg.Done()
			smState.RunWatchdog(ctx, watchdogCadence, 30*time.Second, time.Hour)
		}()
	}

	metricsServer := &http.Server{Addr: *metricsAddr, Handler: promhttp.Handler()}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("dsd-neo: metrics server error: %v", err)
		}
	}()

	wsMux := http.NewServeMux()
	wsMux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if err := hub.HandleWebSocket(w, r); err != nil {
			log.Printf("dsd-neo: telemetry websocket error: %v", err)
		}
	})
	wsServer := &http.Server{Addr: *wsAddr, Handler: wsMux}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := wsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("dsd-neo: telemetry server error: %v", err)
		}
	}()

	grpcServer := grpc.NewServer()
	trunkapi.RegisterServer(grpcServer, &trunkapi.StateServer{State: smState})
	grpcListener, err := newGRPCListener(*grpcAddr)
	if err != nil {
		return bootstrap.ErrorOutcome(err)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Printf("dsd-neo: grpc server error: %v", err)
		}
	}()

	go publishLoop(ctx, smState, metricsReg, eventLog, hub)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Println("dsd-neo: shutdown requested")

	cleanups := []dsdruntime.Cleanup{
		{Name: "metrics server", Run: func() { _ = metricsServer.Close() }},
		{Name: "telemetry server", Run: func() { _ = wsServer.Close() }},
		{Name: "grpc server", Run: grpcServer.GracefulStop},
		{Name: "watchdog context", Run: cancel},
	}
	if rtpConn != nil {
		cleanups = append(cleanups, dsdruntime.Cleanup{Name: "rtp socket", Run: func() { _ = rtpConn.Close() }})
	}

	dsdruntime.Shutdown(
		[]func(){iqRing.Shutdown, pcmRing.Shutdown},
		nil,
		cleanups,
		smState.FreeAllExt,
	)
	wg.Wait()

	return bootstrap.ContinueOutcome()
}

func newGRPCListener(addr string) (net.Listener, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dsd-neo: grpc listen %s: %w", addr, err)
	}
	return lis, nil
}

func publishLoop(ctx context.Context, s *trunk.State, reg *metrics.Registry, eventLog *logbuf.Buffer, hub *telemetry.Hub) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			snap := s.Snapshot()
			reg.SMState.Set(float64(snap.SMState))
			reg.SMTuneCount.Set(float64(snap.SMTuneCount))
			reg.SMReleaseCount.Set(float64(snap.SMReleaseCount))

			eventLog.Add(logbuf.Entry{
				Timestamp: now,
				Kind:      "sm_snapshot",
				Detail:    snap.SMState.String(),
			})

			fields := map[string]interface{}{
				"sm_state": snap.SMState.String(),
				"cc_freq":  snap.CCFreq,
				"vc_freq":  snap.VCFreq,
				"is_tuned": snap.IsTuned,
				"tunes":    snap.SMTuneCount,
				"releases": snap.SMReleaseCount,
			}
			hub.Broadcast(fields, now)
		}
	}
}
