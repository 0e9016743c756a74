package main

import (
	"flag"
	"fmt"
	"os"

	"groundlink/internal/log"
	"groundlink/pkg/telemetry"
)

func main() {
	file := flag.String("file", "", "Session CSV file to analyze")
	flag.Parse()

	log.Init("info")

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: flightstats -file session.csv")
		os.Exit(2)
	}

	packets, err := telemetry.ReadSession(*file)
	if err != nil {
		log.Error("read session", "error", err)
		os.Exit(1)
	}

	stats, err := telemetry.Analyze(packets)
	if err != nil {
		log.Error("analyze session", "error", err)
		os.Exit(1)
	}

	fmt.Printf("📊 Flight summary for %s\n", *file)
	fmt.Printf("   Packets:     %d over %s (%.1f Hz)\n", stats.Packets, stats.Duration, stats.DataRateHz)
	fmt.Printf("   Apogee:      %.1f m at %s\n", stats.Apogee, stats.ApogeeTime.Format("15:04:05.000"))
	fmt.Printf("   Peak accel:  %.1f m/s² at %s\n", stats.PeakAccel, stats.PeakAccelTime.Format("15:04:05.000"))
	fmt.Printf("   Temperature: %.1f°C to %.1f°C\n", stats.MinTemperature, stats.MaxTemperature)
}
