// Command quantumdice runs dice device loops against either a real UDP
// broadcast medium (one dice per host) or an in-process simulated medium
// (several dice in one process, for demos and manual testing).
package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/qdice/quantumdice/internal/config"
	"github.com/qdice/quantumdice/internal/device"
	"github.com/qdice/quantumdice/internal/driver/simradio"
	"github.com/qdice/quantumdice/internal/driver/udpradio"
	"github.com/qdice/quantumdice/internal/protocol"
	"github.com/qdice/quantumdice/internal/sensor"
	"github.com/qdice/quantumdice/internal/transport"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "", "path to the dice's YAML config file")
		macStr     = pflag.String("mac", "", "this dice's MAC address (AA:BB:CC:DD:EE:FF); random if empty")
		driverName = pflag.String("driver", "udp", "radio driver: udp|sim")
		udpPort    = pflag.Int("udp-port", 7711, "UDP port for the udp driver's broadcast medium")
		simCount   = pflag.Int("sim-dice", 3, "number of dice to simulate in-process when -driver=sim")
		logLevel   = pflag.String("log-level", "", "overrides the config file's logging.level")
		version    = pflag.Bool("version", false, "print version and exit")
	)
	pflag.Parse()

	if *version {
		fmt.Println("quantumdice 1.0.0")
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "log level:", err)
		os.Exit(1)
	}

	runID := uuid.New()
	baseLog := zerolog.New(zerolog.NewConsoleWriter()).
		Level(level).
		With().
		Timestamp().
		Str("run_id", runID.String()).
		Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runErr error
	switch *driverName {
	case "sim":
		runErr = runSimulated(ctx, cfg, baseLog, *simCount)
	case "udp":
		runErr = runSingle(ctx, cfg, baseLog, *macStr, *udpPort)
	default:
		fmt.Fprintf(os.Stderr, "unknown driver %q, want udp or sim\n", *driverName)
		os.Exit(1)
	}

	if runErr != nil {
		baseLog.Error().Err(runErr).Msg("quantumdice exited with error")
		os.Exit(1)
	}
}

func runSingle(ctx context.Context, cfg config.Config, baseLog zerolog.Logger, macStr string, udpPort int) error {
	self, err := resolveMac(macStr)
	if err != nil {
		return fmt.Errorf("invalid -mac: %w", err)
	}
	log := baseLog.With().Str("dice_id", cfg.DiceID).Str("mac", self.String()).Logger()

	driver := udpradio.New(udpPort, udpradio.AttenuationTable{})
	defer driver.Close()

	radio := transport.New(self, driver, log)
	sense := sensor.NewSim() // real accelerometer integration is out of scope; swap this facade in for hardware builds.
	dev := device.New(self, cfg, radio, sense, log)

	log.Info().Msg("starting quantumdice")
	return dev.Run(ctx)
}

// runSimulated runs simCount dice in one process over a shared in-memory
// medium, useful for exercising the full entanglement/teleportation protocol
// without separate hosts or real radios.
func runSimulated(ctx context.Context, cfg config.Config, baseLog zerolog.Logger, simCount int) error {
	if simCount < 1 {
		return fmt.Errorf("-sim-dice must be at least 1")
	}

	medium := simradio.NewMedium()
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < simCount; i++ {
		self := protocol.MacAddress{0x02, 0, 0, 0, 0, byte(i + 1)}
		diceCfg := cfg
		diceCfg.DiceID = fmt.Sprintf("%s-%d", cfg.DiceID, i+1)
		log := baseLog.With().Str("dice_id", diceCfg.DiceID).Str("mac", self.String()).Logger()

		driver := medium.Join(self)
		radio := transport.New(self, driver, log)
		sense := sensor.NewSim()
		dev := device.New(self, diceCfg, radio, sense, log)

		log.Info().Msg("starting simulated quantumdice")
		g.Go(func() error { return dev.Run(ctx) })
	}

	return g.Wait()
}

func resolveMac(s string) (protocol.MacAddress, error) {
	if s == "" {
		var m protocol.MacAddress
		m[0] = 0x02 // locally-administered unicast bit set
		if _, err := rand.Read(m[1:]); err != nil {
			return m, err
		}
		return m, nil
	}
	return protocol.ParseMac(s)
}
