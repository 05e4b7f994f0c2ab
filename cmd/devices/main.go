package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/git-756/discord-switchbot-lock/adapters/switchbot"
	"github.com/git-756/discord-switchbot-lock/domain/entities"
	"github.com/git-756/discord-switchbot-lock/internal/config"
)

// devices prints every device registered to the SwitchBot account, so the
// lock and meter ids can be copied into .env
func main() {
	metersOnly := flag.Bool("meters-only", false, "only list thermo-hygrometers")
	asJSON := flag.Bool("json", false, "print the device list as JSON")
	envFile := flag.String("env", ".env", "env file to load")
	verbose := flag.Bool("v", false, "log requests")
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	client, err := switchbot.NewClient(switchbot.Config{
		Token:      cfg.SwitchBotToken,
		Secret:     cfg.SwitchBotSecret,
		APIBaseURL: cfg.SwitchBotAPIBaseURL,
		Timeout:    cfg.SwitchBotTimeout,
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "SWITCHBOT_TOKEN と SWITCHBOT_SECRET を設定してください: %v\n", err)
		os.Exit(1)
	}

	result := client.ListDevices(context.Background())
	if !result.OK() {
		fmt.Fprintf(os.Stderr, "デバイス一覧の取得に失敗しました (%s)。トークン/シークレットキー、またはインターネット接続を確認してください。\n", result.Reason())
		os.Exit(1)
	}

	devices := filterDevices(result.Value(), *metersOnly)
	if *asJSON {
		err = printJSON(os.Stdout, devices)
	} else {
		printDevices(os.Stdout, devices)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func filterDevices(devices []entities.DeviceInfo, metersOnly bool) []entities.DeviceInfo {
	if !metersOnly {
		return devices
	}
	var meters []entities.DeviceInfo
	for _, d := range devices {
		if d.IsMeter() {
			meters = append(meters, d)
		}
	}
	return meters
}

// printDevices writes one block per device, meters with their id in bold
func printDevices(w io.Writer, devices []entities.DeviceInfo) {
	fmt.Fprintln(w, "--- デバイス一覧 ---")
	for _, d := range devices {
		if d.IsMeter() {
			fmt.Fprintf(w, "デバイス名: %s\n", d.Name)
			fmt.Fprintf(w, "デバイスタイプ: %s\n", d.Type)
			fmt.Fprintf(w, "**デバイスID: %s**\n\n", d.ID)
		} else {
			fmt.Fprintf(w, "デバイス名: %s (タイプ: %s)\n", d.Name, d.Type)
			fmt.Fprintf(w, "ID: %s\n\n", d.ID)
		}
	}
}

func printJSON(w io.Writer, devices []entities.DeviceInfo) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(devices)
}
