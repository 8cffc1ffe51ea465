// FoxControl - Serial Device Control Bridge
//
// FoxControl drives a serial-attached speed-controlled device and keeps
// it in sync with a remote HTTPS control gateway. It owns the paced
// token transmitter, the feedback decoder, the gateway poll loop and an
// interactive operator console, with optional MQTT state mirroring and
// InfluxDB speed telemetry.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/f0x0/foxcontrol/internal/device"
	"github.com/f0x0/foxcontrol/internal/gateway"
	"github.com/f0x0/foxcontrol/internal/infrastructure/config"
	"github.com/f0x0/foxcontrol/internal/infrastructure/influxdb"
	"github.com/f0x0/foxcontrol/internal/infrastructure/logging"
	"github.com/f0x0/foxcontrol/internal/infrastructure/mqtt"
	"github.com/f0x0/foxcontrol/internal/monitor"
	"github.com/f0x0/foxcontrol/internal/serial"
	"github.com/f0x0/foxcontrol/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// defaultConfigPath is consulted when --config is not given; a missing
// file there is not an error, flags alone can carry a full setup.
const defaultConfigPath = "configs/config.yaml"

func main() {
	flags := parseFlags(os.Args[1:])

	if flags.showVersion {
		fmt.Printf("foxcontrol %s (commit %s, built %s)\n", version, commit, date)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, flags); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cliFlags carries the command-line surface. Only flags the operator
// actually set override the configuration file.
type cliFlags struct {
	fs *pflag.FlagSet

	configPath  string
	devicePath  string
	baudRate    int
	address     string
	port        int
	updateRate  int
	certificate string
	password    string
	monitor     bool
	verbose     bool
	showVersion bool
}

func parseFlags(args []string) *cliFlags {
	f := &cliFlags{fs: pflag.NewFlagSet("foxcontrol", pflag.ExitOnError)}

	f.fs.StringVar(&f.configPath, "config", "", "path to configuration file")
	f.fs.StringVarP(&f.devicePath, "device", "d", "", "serial device node (e.g. /dev/ttyUSB0)")
	f.fs.IntVarP(&f.baudRate, "rate", "r", 19200, "serial baud rate")
	f.fs.StringVarP(&f.address, "address", "a", "", "control gateway address")
	f.fs.IntVarP(&f.port, "port", "p", 443, "control gateway port")
	f.fs.IntVarP(&f.updateRate, "updaterate", "u", 500, "gateway poll interval in milliseconds")
	f.fs.StringVarP(&f.certificate, "certificate", "c", "./certificate.crt", "gateway TLS certificate")
	f.fs.StringVarP(&f.password, "password", "P", "", "gateway password")
	f.fs.BoolVarP(&f.monitor, "monitor", "m", false, "enable the local monitor surface")
	f.fs.BoolVarP(&f.verbose, "verbose", "V", false, "enable debug logging")
	f.fs.BoolVarP(&f.showVersion, "version", "v", false, "print version and exit")

	// ExitOnError: parse failures and -h/--help terminate here.
	_ = f.fs.Parse(args)
	return f
}

// loadConfig builds the effective configuration: defaults, then the
// YAML file if one exists, then flags the operator set.
func loadConfig(flags *cliFlags) (*config.Config, error) {
	path := flags.configPath
	required := path != ""
	if path == "" {
		path = defaultConfigPath
	}

	var cfg *config.Config
	if _, err := os.Stat(path); err == nil {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	} else if required {
		return nil, fmt.Errorf("reading config file: %w", err)
	} else {
		cfg = config.Default()
	}

	if flags.fs.Changed("device") {
		cfg.Device.Path = flags.devicePath
	}
	if flags.fs.Changed("rate") {
		cfg.Device.BaudRate = flags.baudRate
	}
	if flags.fs.Changed("address") {
		cfg.Gateway.Address = flags.address
	}
	if flags.fs.Changed("port") {
		cfg.Gateway.Port = flags.port
	}
	if flags.fs.Changed("updaterate") {
		cfg.Gateway.UpdateRate = time.Duration(flags.updateRate) * time.Millisecond
	}
	if flags.fs.Changed("certificate") {
		cfg.Gateway.CertificatePath = flags.certificate
	}
	if flags.fs.Changed("password") {
		cfg.Gateway.Password = flags.password
	}
	if flags.monitor {
		cfg.Monitor.Enabled = true
	}
	if flags.verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	// Final presence checks, after the flag merge.
	if cfg.Device.Path == "" {
		return nil, errors.New("no serial device given (use --device or device.path)")
	}
	if cfg.Gateway.Address == "" {
		return nil, errors.New("no gateway address given (use --address or gateway.address)")
	}
	if cfg.Gateway.Password == "" {
		return nil, errors.New("no gateway password given (use --password, gateway.password or FOXCONTROL_GATEWAY_PASSWORD)")
	}

	return cfg, nil
}

// run is the actual application logic, separated from main for
// testability. Returning an error lets main handle exit codes in one
// place.
func run(ctx context.Context, flags *cliFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	log := logging.New(cfg.Logging, version)
	log.Info("starting FoxControl",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Open the serial device.
	port, err := serial.Open(cfg.Device.Path, cfg.Device.BaudRate)
	if err != nil {
		return fmt.Errorf("opening serial device: %w", err)
	}
	defer func() {
		if closeErr := port.Close(); closeErr != nil {
			log.Error("error closing serial device", "error", closeErr)
		}
	}()
	log.Info("serial device opened",
		"path", port.Name(),
		"baud_rate", port.BaudRate(),
	)

	// Device server: state machine, paced transmitter, feedback decoder.
	srv := device.New(port, device.Config{Tick: cfg.Device.Tick})
	srv.SetLogger(log)

	// Gateway session.
	session, err := gateway.New(srv, gateway.Config{
		Address:            cfg.Gateway.Address,
		Port:               cfg.Gateway.Port,
		UpdateRate:         cfg.Gateway.UpdateRate,
		CertificatePath:    cfg.Gateway.CertificatePath,
		Password:           cfg.Gateway.Password,
		InsecureSkipVerify: cfg.Gateway.InsecureSkipVerify,
	})
	if err != nil {
		return fmt.Errorf("creating gateway session: %w", err)
	}
	session.SetLogger(log)

	// Local monitor surface (optional).
	if cfg.Monitor.Enabled {
		mon := monitor.New(monitor.Config{
			LogLines:     cfg.Monitor.LogLines,
			SpeedHistory: cfg.Monitor.SpeedHistory,
		})
		srv.Attach(mon)
		session.Attach(mon)
		log.Info("monitor surface enabled",
			"log_lines", cfg.Monitor.LogLines,
			"speed_history", cfg.Monitor.SpeedHistory,
		)
	}

	// MQTT status mirror (optional).
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(discErr error) {
			log.Warn("MQTT disconnected", "error", discErr)
		})

		srv.Attach(telemetry.NewMirror(mqttClient, mqtt.Topics{}.DeviceState(), log))
		log.Info("MQTT state mirror enabled",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	}

	// InfluxDB speed telemetry (optional).
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(writeErr error) {
			log.Warn("InfluxDB write failed", "error", writeErr)
		})

		srv.Attach(telemetry.NewRecorder(influxClient))
		log.Info("speed telemetry enabled",
			"url", cfg.InfluxDB.URL,
			"bucket", cfg.InfluxDB.Bucket,
		)
	}

	// Launch the serial loops, the console and the gateway poll loop.
	srv.Start()
	srv.StartConsole(os.Stdin)
	session.Start()
	log.Info("FoxControl running",
		"gateway", fmt.Sprintf("%s:%d", cfg.Gateway.Address, cfg.Gateway.Port),
		"update_rate", cfg.Gateway.UpdateRate,
	)

	// Block until a signal arrives or the operator types "exit".
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case <-srv.Done():
		log.Info("console exit requested")
	}

	// Gateway first so the offline announcement goes out while the
	// device loops still run, then the device server so any trailing
	// power-off token is flushed to the wire.
	session.Close()
	srv.Close()

	log.Info("FoxControl stopped")
	return nil
}
