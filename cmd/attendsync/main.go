package main

import (
	"log/slog"
	"os"

	"attendsync-backend/cmd/attendsync/commands"
	"attendsync-backend/lib/serviceutil"
	"attendsync-backend/lib/telemetry"
)

func main() {
	telemetry.InitSlog(true)

	ctx := serviceutil.SignalContext()
	tel, err := telemetry.SetupFromEnv(ctx, "attendsync")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	if err == nil {
		defer tel.Shutdown(ctx)
		telemetry.InstrumentPerfStats(ctx)
	} else {
		slog.Debug("no telemetry.json5 found, telemetry disabled")
	}

	commands.ExecuteContext(ctx)
}
