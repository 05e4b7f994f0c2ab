package usecase

import (
	"fmt"
	"strings"

	"github.com/git-756/discord-switchbot-lock/domain/entities"
)

const missingValue = "--"

var ackTemplates = map[Action]string{
	ActionUnlock:     "🔑 今から開けるよ...",
	ActionLock:       "🔓 今から閉めるよ...",
	ActionLockStatus: "💬 確認するよ...",
	ActionSensor:     "SwitchBotの温湿度データを取得中です... 📡",
}

var failureTemplates = map[Action]string{
	ActionUnlock:     "❌ 解錠に失敗しました: %s",
	ActionLock:       "❌ 施錠に失敗しました: %s",
	ActionLockStatus: "❌ 状態取得に失敗しました: %s",
	ActionSensor:     "❌ 温湿度データの取得に失敗しました: %s :interrobang:",
}

// AckText is sent as soon as a trigger matches
func AckText(action Action) string {
	return ackTemplates[action]
}

// FailureText is the outcome reply for a failed call
func FailureText(action Action, reason string) string {
	return fmt.Sprintf(failureTemplates[action], reason)
}

// LockCommandText is the outcome reply for a successful lock or unlock
func LockCommandText(action entities.LockAction) string {
	if action == entities.LockActionUnlock {
		return "✅ 開いたよ！"
	}
	return "✅ 閉まったよ！"
}

// LockStatusText is the outcome reply for a successful status query
func LockStatusText(status entities.LockStatus) string {
	battery := formatInt(status.Battery)

	var state string
	switch status.State.Kind {
	case entities.LockStateLocked:
		state = fmt.Sprintf("施錠されています 🔒 (電池残量: %s%%)", battery)
	case entities.LockStateUnlocked:
		state = fmt.Sprintf("解錠されています 🔓 (電池残量: %s%%)", battery)
	default:
		state = fmt.Sprintf("状態が不明です (%s) ❓ (電池残量: %s%%)", status.State.Raw, battery)
	}
	return "➡️ **現在の鍵の状態**: " + state
}

// SensorText is the outcome reply for a successful sensor query.
// Absent values are shown as "--".
func SensorText(r entities.SensorReading) string {
	return fmt.Sprintf("🌡️ **現在の温湿度データ** 🌡️\n温度: **%s °C**\n湿度: **%s %%**\nバッテリー残量: %s %%",
		formatFloat(r.Temperature), formatFloat(r.Humidity), formatInt(r.Battery))
}

// DeviceListText renders one line per device, meters first
func DeviceListText(devices []entities.DeviceInfo) string {
	if len(devices) == 0 {
		return "デバイスが見つかりませんでした。"
	}

	var b strings.Builder
	b.WriteString("--- デバイス一覧 ---")
	for _, meters := range []bool{true, false} {
		for _, d := range devices {
			if d.IsMeter() != meters {
				continue
			}
			b.WriteString("\n")
			if meters {
				fmt.Fprintf(&b, "🌡️ %s (%s) **%s**", d.Name, d.Type, d.ID)
			} else {
				fmt.Fprintf(&b, "• %s (%s) %s", d.Name, d.Type, d.ID)
			}
		}
	}
	return b.String()
}

func formatFloat(v *float64) string {
	if v == nil {
		return missingValue
	}
	return fmt.Sprintf("%.1f", *v)
}

func formatInt(v *int) string {
	if v == nil {
		return missingValue
	}
	return fmt.Sprintf("%d", *v)
}
