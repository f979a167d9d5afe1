// Command nrc bootstraps and runs the flow runtime from a JSON
// configuration document.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olabjorsne/nrc-sub000/cfg"
	"github.com/olabjorsne/nrc-sub000/core"
	"github.com/olabjorsne/nrc-sub000/dispatcher"
	"github.com/olabjorsne/nrc-sub000/factory"
	"github.com/olabjorsne/nrc-sub000/host"
	"github.com/olabjorsne/nrc-sub000/log"
	"github.com/olabjorsne/nrc-sub000/node"
	"github.com/olabjorsne/nrc-sub000/nodes/debug"
	"github.com/olabjorsne/nrc-sub000/nodes/inject"
	"github.com/olabjorsne/nrc-sub000/status"
	"github.com/olabjorsne/nrc-sub000/timer"
)

const hostCfgID core.NodeID = "$host"

func main() {
	os.Exit(run())
}

func run() int {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [config.json]\n", os.Args[0])
	}
	flag.Parse()

	cfgPath := "flow.json"
	if flag.NArg() > 0 {
		cfgPath = flag.Arg(0)
	}

	logger := log.NewStdout(log.Info)
	log.SetGlobal(logger)

	f, err := os.Open(cfgPath)
	if err != nil {
		logger.Log(log.Entry{Level: log.Error, Tag: "nrc", Message: "opening configuration", Err: err})
		return 1
	}
	defer f.Close()

	config, err := cfg.Load(f)
	if err != nil {
		logger.Log(log.Entry{Level: log.Error, Tag: "nrc", Message: "loading configuration", Err: err})
		return 1
	}

	d := dispatcher.New(dispatcher.WithLogger(logger))
	wheel := timer.New(d, timer.WithLogger(logger))
	bus := status.NewBus(d)

	reg := factory.New()
	if err := inject.Register(reg, wheel); err != nil {
		logger.Log(log.Entry{Level: log.Error, Tag: "nrc", Message: "registering inject", Err: err})
		return 1
	}
	if err := debug.Register(reg, bus); err != nil {
		logger.Log(log.Entry{Level: log.Error, Tag: "nrc", Message: "registering debug", Err: err})
		return 1
	}

	hostNode := host.New(hostCfgID, config, reg, d)
	bootstrap := []dispatcher.FlowNode{{
		Header:   node.Header{CfgID: hostCfgID, CfgType: "host", CfgName: "host"},
		Instance: hostNode,
	}}
	if err := d.LoadFlow(bootstrap); err != nil {
		logger.Log(log.Entry{Level: log.Error, Tag: "nrc", Message: "loading flow", Err: err})
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go wheel.Run(ctx)

	runErr := d.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = d.Shutdown(shutdownCtx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Log(log.Entry{Level: log.Error, Tag: "nrc", Message: "dispatcher stopped", Err: runErr})
		return 1
	}
	return 0
}
