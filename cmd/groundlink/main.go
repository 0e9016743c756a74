package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"groundlink/internal/config"
	"groundlink/internal/log"
	"groundlink/pkg/orientation"
	"groundlink/pkg/protocol"
	"groundlink/pkg/station"
	"groundlink/pkg/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to groundlink.yaml (optional)")
	urlFlag := flag.String("url", "", "Backend WebSocket URL (overrides config)")
	portFlag := flag.String("port", "", "Serial port to open (overrides config)")
	baudFlag := flag.Int("baud", 0, "Serial baud rate (overrides config)")
	recordFlag := flag.String("record", "", "Record session to CSV file (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	log.Init(level)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}
	if *urlFlag != "" {
		cfg.Station.URL = *urlFlag
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *baudFlag > 0 {
		cfg.Serial.BaudRate = *baudFlag
	}
	if *recordFlag != "" {
		cfg.Recording.Enable = true
		cfg.Recording.Path = *recordFlag
	}

	fmt.Println("🚀 groundlink telemetry client")
	fmt.Printf("   Backend: %s\n", cfg.Station.URL)
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n👋 Shutting down...")
		cancel()
	}()

	if err := station.WaitForBackend(ctx, cfg.Station.HealthURL); err != nil {
		log.Error("backend not ready", "error", err)
		os.Exit(1)
	}

	client := station.New(station.Options{
		URL:            cfg.Station.URL,
		BaseDelay:      cfg.Station.BaseDelay,
		MaxAttempts:    cfg.Station.MaxAttempts,
		RequestTimeout: cfg.Station.RequestTimeout,
		Logger:         log.L(),
	})
	if err := client.Connect(ctx); err != nil {
		log.Error("connect", "error", err)
		os.Exit(1)
	}
	defer client.Disconnect()

	var recorder *telemetry.Recorder
	if cfg.Recording.Enable {
		recorder, err = telemetry.NewRecorder(cfg.Recording.Path)
		if err != nil {
			log.Error("open session recorder", "error", err)
			os.Exit(1)
		}
		defer recorder.Close()
		log.Info("recording session", "path", cfg.Recording.Path)
	}

	normalizer := telemetry.NewNormalizer(log.L())
	consumer := orientation.NewConsumer(cfg.Render.Smoothing, cfg.Render.TickRate)
	go consumer.Run()
	defer consumer.Stop()

	ingest := func(msg *protocol.Inbound) {
		for _, pkt := range normalizer.Normalize(msg.Data) {
			consumer.Ingest(&pkt)
			if recorder != nil {
				if err := recorder.Write(&pkt); err != nil {
					log.Warn("record packet", "error", err)
				}
			}
		}
	}
	client.OnMessage(protocol.TypeSerialData, ingest)
	client.OnMessage(protocol.TypeTelemetryData, ingest)
	client.OnMessage(protocol.TypeConsoleData, func(msg *protocol.Inbound) {
		var line string
		if err := json.Unmarshal(msg.Data, &line); err != nil {
			log.Debug("console payload", "error", err)
			return
		}
		log.Info("console", "line", line)
	})

	ports, err := client.ListPorts()
	if err != nil {
		log.Error("list ports", "error", err)
		os.Exit(1)
	}
	for _, p := range ports {
		fmt.Printf("   %s  %s\n", p.Port, p.Description)
	}

	port := cfg.Serial.Port
	if port == "" && len(ports) > 0 {
		port = ports[0].Port
	}
	if port == "" {
		log.Error("no serial port available")
		os.Exit(1)
	}
	if err := client.OpenPort(port, cfg.Serial.BaudRate); err != nil {
		log.Error("open port", "error", err, "port", port)
		os.Exit(1)
	}
	fmt.Printf("✅ Receiving telemetry from %s @ %d baud\n", port, cfg.Serial.BaudRate)
	defer client.ClosePort(port)

	status := time.NewTicker(5 * time.Second)
	defer status.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Println("👋 Goodbye!")
			return
		case <-status.C:
			pose := consumer.Current()
			attrs := []any{
				"state", client.State().String(),
				"pose_w", fmt.Sprintf("%.3f", pose.W),
			}
			if recorder != nil {
				attrs = append(attrs, "recorded", recorder.Count())
			}
			log.Info("status", attrs...)
		}
	}
}
