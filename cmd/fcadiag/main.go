package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Dsmasal14/FcaDiag/pkg/can"
	"github.com/Dsmasal14/FcaDiag/pkg/config"
	"github.com/Dsmasal14/FcaDiag/pkg/uds"
)

func main() {
	log.SetLevel(log.InfoLevel)

	configPath := flag.String("c", "", "session config file (INI)")
	moduleName := flag.String("m", "", "module name from the config's [module.<name>] sections")
	command := flag.String("cmd", "dtcs", "one of: session, read, dtcs, clear, reset, tester-present")
	did := flag.Uint("did", 0xF190, "data identifier for -cmd=read")
	session := flag.Uint("session", 0x03, "session byte for -cmd=session")
	flag.Parse()

	if *configPath == "" || *moduleName == "" {
		fmt.Fprintln(os.Stderr, "usage: fcadiag -c session.ini -m <module> [-cmd ...]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	mod, ok := cfg.Modules[*moduleName]
	if !ok {
		fmt.Fprintf(os.Stderr, "no module %q in %s\n", *moduleName, *configPath)
		os.Exit(1)
	}

	transport, err := can.NewSocketCANTransport(cfg.Interface, slog.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", cfg.Interface, err)
		os.Exit(1)
	}

	client := uds.NewClient(transport, mod.Address)
	client.SetTiming(cfg.Timing)
	client.SetPadding(mod.Padding)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, client, *command, uint16(*did), byte(*session)); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", *command, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, client *uds.Client, command string, did uint16, session byte) error {
	switch command {
	case "session":
		resp, err := client.StartSession(ctx, session)
		if err != nil {
			return err
		}
		fmt.Printf("session response: %x (p2=%s p2*=%s)\n", resp.Raw, client.Timing().P2, client.Timing().P2Star)

	case "read":
		_, value, resp, err := client.ReadDataByIdentifier(ctx, did)
		if err != nil {
			return err
		}
		if resp.Kind != uds.Positive {
			return fmt.Errorf("negative response: %s", resp.Code)
		}
		fmt.Printf("did %#04x = %x\n", did, value)

	case "dtcs":
		dtcs, resp, err := client.ReadDTCs(ctx)
		if err != nil {
			return err
		}
		if resp.Kind != uds.Positive {
			return fmt.Errorf("negative response: %s", resp.Code)
		}
		for _, dtc := range dtcs {
			fmt.Printf("%s status=%#02x confirmed=%v pending=%v\n", dtc.Display(), dtc.Status, dtc.Confirmed(), dtc.Pending())
		}

	case "clear":
		resp, err := client.ClearDTCs(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("clear response: %x\n", resp.Raw)

	case "reset":
		resp, err := client.EcuReset(ctx, 0x01)
		if err != nil {
			return err
		}
		fmt.Printf("reset response: %x\n", resp.Raw)

	case "tester-present":
		resp, err := client.TesterPresent(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("tester present response: %x\n", resp.Raw)

	default:
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}
