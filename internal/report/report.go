// internal/report/report.go
package report

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/solana-profit/internal/snapshot"
	"github.com/rovshanmuradov/solana-profit/internal/ui/style"
)

// FormatAmount переводит минимальные единицы в человекочитаемую сумму.
func FormatAmount(raw uint64, decimals int32) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -decimals).StringFixed(decimals)
}

// FormatProfit форматирует профит со знаком: "+0.000005000 SOL (5000 lamports)".
func FormatProfit(lamports *big.Int) string {
	if lamports == nil {
		lamports = new(big.Int)
	}
	sol := decimal.NewFromBigInt(lamports, -snapshot.NativeDecimals).StringFixed(snapshot.NativeDecimals)
	if lamports.Sign() > 0 {
		sol = "+" + sol
	}
	return fmt.Sprintf("%s SOL (%s lamports)", sol, lamports.String())
}

// RenderProfit возвращает профит, раскрашенный по знаку.
func RenderProfit(lamports *big.Int) string {
	sign := 0
	if lamports != nil {
		sign = lamports.Sign()
	}
	return style.PnLStyle(sign).Render(FormatProfit(lamports))
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, style.Label.Render(label), style.Value.Render(value))
}

func balanceRows(s snapshot.WalletSnapshot) []string {
	return []string{
		row("SOL", FormatAmount(s.NativeBalance, snapshot.NativeDecimals)),
		row("WSOL", FormatAmount(s.WrappedBalance, snapshot.NativeDecimals)),
		row("USDC", FormatAmount(s.StableBalance, snapshot.StableDecimals)),
	}
}

// RenderSnapshot рисует таблицу балансов кошелька.
func RenderSnapshot(wallet string, s snapshot.WalletSnapshot) string {
	lines := []string{style.Title.Render("Wallet " + wallet)}
	lines = append(lines, balanceRows(s)...)
	return style.Box.Render(strings.Join(lines, "\n"))
}

// RenderMeasurement рисует снапшоты до/после и итоговый профит.
func RenderMeasurement(wallet string, m snapshot.Measurement) string {
	before := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{style.Muted.Render("before")}, balanceRows(m.Before)...)...)
	after := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{style.Muted.Render("after")}, balanceRows(m.After)...)...)

	body := lipgloss.JoinVertical(lipgloss.Left,
		style.Title.Render("Wallet "+wallet),
		lipgloss.JoinHorizontal(lipgloss.Top, before, "   ", after),
		"",
		row("Profit", "")+" "+RenderProfit(m.Profit),
	)
	return style.Box.Render(body)
}

// RenderUpdate возвращает одну строку для режима watch.
func RenderUpdate(at time.Time, s snapshot.WalletSnapshot, sinceBaseline, sinceLast *big.Int) string {
	return fmt.Sprintf("%s  SOL %s  WSOL %s  USDC %s  total %s  Δ %s",
		style.Muted.Render(at.Format("15:04:05")),
		FormatAmount(s.NativeBalance, snapshot.NativeDecimals),
		FormatAmount(s.WrappedBalance, snapshot.NativeDecimals),
		FormatAmount(s.StableBalance, snapshot.StableDecimals),
		RenderProfit(sinceBaseline),
		RenderProfit(sinceLast),
	)
}
