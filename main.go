package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/CodedInternet/gomixer/logging"
	. "github.com/CodedInternet/gomixer/onboard"
	"github.com/CodedInternet/gomixer/onboard/hardware"
	"github.com/abiosoft/ishell"
	"github.com/caarlos0/env/v6"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gopkg.in/yaml.v2"
)

var ENV EnvConfig

func main() {
	if err := env.Parse(&ENV); err != nil {
		fmt.Fprintln(os.Stderr, "unable to parse environment:", err)
		os.Exit(2)
	}

	// process flags, these override the environment
	simulated := flag.Bool("sim", ENV.Simulated, "Write to the simulated sink regardless of the frame config")
	listen := flag.String("listen", ENV.Listen, "Specify the ip:port to listen on")
	filename := flag.String("config", ENV.FrameConfig, "Path to the frame yaml")
	interactive := flag.Bool("shell", true, "Start the interactive shell on stdin")
	flag.Parse()

	log := logging.New(logging.Config{Level: ENV.LogLevel, Format: ENV.LogFormat})

	if err := run(log, *filename, *listen, *simulated, *interactive); err != nil {
		log.Error(context.Background(), "exiting", logging.Err(err))
		os.Exit(1)
	}
}

func run(log logging.Logger, filename, listen string, simulated, interactive bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	config, err := LoadFrameConfig(filename)
	if err != nil {
		return err
	}
	if simulated {
		config.Sink = SinkConfig{Kind: SINK_SIM}
	}
	log = log.With(logging.String("frame", config.Name))
	log.Info(ctx, "frame loaded",
		logging.String("file", filename),
		logging.String("policy", config.Policy),
		logging.String("sink", config.Sink.Kind),
		logging.Int("motors", len(config.Motors)))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := NewMetrics(registry)

	sink, closer, err := NewSink(config.Sink)
	if err != nil {
		return err
	}
	defer closer.Close()

	device, err := NewMultirotor(config, NewInstrumentedSink(sink, metrics))
	if err != nil {
		return err
	}

	runner := NewRunner(device, config.RateHz, config.FailsafeTimeout(), log, metrics)
	loopDone := make(chan error, 1)
	go func() { loopDone <- runner.Run(ctx) }()

	server := &http.Server{
		Addr:    listen,
		Handler: NewServer(device, runner, registry, log).Router(),
	}
	go func() {
		log.Info(ctx, "listening", logging.String("addr", listen))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "http server failed", logging.Err(err))
			cancel()
		}
	}()

	if interactive {
		// Start an instance of the shell so it can be controlled from the CLI
		go newShell(device, runner, config).Start()
	}

	<-ctx.Done()

	shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn(shutdownCtx, "http shutdown", logging.Err(err))
	}

	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newShell(device *Multirotor, runner *Runner, config FrameConfig) *ishell.Shell {
	shell := ishell.New()
	shell.Println("gomixer bench shell")
	shell.ShowPrompt(true)

	shell.AddCmd(&ishell.Cmd{
		Name: "cmd",
		Help: "cmd <x> <y> <yaw> <throttle>",
		Func: func(c *ishell.Context) {
			cmd, err := parseCommand(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			runner.SetCommand(cmd)
			for name, pulse := range device.Preview(cmd) {
				c.Printf("%-12s %4d\n", name, pulse)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "stop",
		Help: "stop all motors",
		Func: func(c *ishell.Context) {
			runner.Stop()
			c.Println("Motors stopped")
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "state",
		Help: "print the last output of every motor",
		Func: func(c *ishell.Context) {
			c.Printf("armed: %v\n", runner.Armed())
			for _, s := range device.State() {
				c.Printf("%-12s ch%-3d %-8s pulse %4d duty %3d\n", s.Name, s.Channel, s.Mode, s.Pulse, s.Duty)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "gains",
		Help: "print the mixing gains",
		Func: func(c *ishell.Context) {
			for _, g := range device.Gains() {
				c.Printf("%-12s ch%-3d spin %2d x %6d (%+.4f) y %6d (%+.4f)\n",
					g.Name, g.Channel, g.Spin, g.X, g.X.Float(), g.Y, g.Y.Float())
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "config",
		Help: "print the loaded frame config",
		Func: func(c *ishell.Context) {
			yml, err := yaml.Marshal(config)
			if err != nil {
				c.Err(err)
				return
			}
			c.Print(string(yml))
		},
	})

	return shell
}

func parseCommand(args []string) (cmd hardware.Command, err error) {
	if len(args) != 4 {
		return cmd, fmt.Errorf("expected 4 arguments, got %d", len(args))
	}

	var values [4]int16
	for i, arg := range args {
		v, err := strconv.ParseInt(arg, 10, 16)
		if err != nil {
			return cmd, fmt.Errorf("argument %d: %v", i+1, err)
		}
		values[i] = int16(v)
	}

	return hardware.Command{X: values[0], Y: values[1], Yaw: values[2], Throttle: values[3]}, nil
}
