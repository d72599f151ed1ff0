// Command kernel runs the boot sequence, wakes the application cores,
// wires timer preemption on every core, and then serves the debug shell
// against a host terminal and host filesystem, standing in for the real
// UART console and FAT32 SD card this core's hardware build would use
// (spec.md §1, §2). It creates no user process and runs no per-core
// scheduling loop: the scheduler and syscall table are built but not
// driven from here.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rpi3kernel/core/internal/board"
	"github.com/rpi3kernel/core/internal/bootcfg"
	"github.com/rpi3kernel/core/internal/bootseq"
	"github.com/rpi3kernel/core/internal/console"
	"github.com/rpi3kernel/core/internal/hostfs"
	"github.com/rpi3kernel/core/internal/netdrv"
	"github.com/rpi3kernel/core/internal/shell"
	"github.com/rpi3kernel/core/internal/svc"
)

func main() {
	configPath := flag.String("config", "", "path to a bootcfg YAML file (defaults to the stock RPi3 1 GiB layout)")
	fsRoot := flag.String("fsroot", ".", "host directory standing in for the FAT32 SD card root")
	numCores := flag.Int("cores", board.NumCores, "number of cores to bring up")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := bootcfg.Default()
	if *configPath != "" {
		loaded, err := bootcfg.Load(*configPath)
		if err != nil {
			log.Error("failed to load boot config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	fs := hostfs.New(*fsRoot)
	net := netdrv.New()

	k := bootseq.Boot(cfg, fs, net, svc.SystemClock{}, *numCores, log)

	for core := 1; core < *numCores; core++ {
		go k.WakeApplicationCore(core, nil)
	}
	for core := 0; core < *numCores; core++ {
		k.WireTimerPreemption(core, noopTimer{}, board.Tick)
	}

	log.Info("boot complete", "cores", *numCores)

	if err := console.HostTerminal(func(rw io.ReadWriter) error {
		uart := console.New(rw)
		k.Svc.Console = uart
		fmt.Fprint(os.Stderr, "\r\n")
		return shell.New(uart, fs).Run("kernel$ ")
	}); err != nil {
		log.Error("console session ended with error", "error", err)
		os.Exit(1)
	}
}

// noopTimer stands in for the CNTPNSIRQ/Timer1 hardware timer this host
// build has none of; a real boot stub's equivalent reprograms the
// generic timer's compare register.
type noopTimer struct{}

func (noopTimer) Rearm(tickMs int) {}
