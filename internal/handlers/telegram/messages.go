package telegram

import (
	"fmt"
	"strings"

	"github.com/Jestopher-BTC/LNhelperBot/internal/txwatch"
)

const (
	welcomeText = "👋 <b>Welcome to LNhelperBot!</b>\n\n" +
		"This bot helps you monitor Bitcoin transactions for confirmations, get block notifications, and view Lightning liquidity charts.\n\n" +
		"<b>How to use:</b>\n" +
		"• <b>Monitor a transaction:</b> Send a Bitcoin txid\n" +
		"• <b>Check status:</b> /status\n" +
		"• <b>Stop monitoring:</b> /remove &lt;txid&gt;\n" +
		"• <b>Block notifications:</b> /notifyblocks, /stopblocks\n" +
		"• <b>Liquidity chart:</b> /liquiditychart\n\n" +
		"Use the menu below or type /help for all commands."

	helpText = "Available commands:\n" +
		"/start - Welcome message and menu\n" +
		"/help - Show this help message\n" +
		"/notifyblocks - Get notified every time a new Bitcoin block is found\n" +
		"/stopblocks - Stop block notifications\n" +
		"/liquiditychart - Get the latest Magma liquidity chart\n" +
		"/status - Show the status of all monitored transactions for the user\n" +
		"/remove <txid> - Stop monitoring a transaction\n" +
		"\nJust send a Bitcoin txid to monitor it for 6 confirmations.\n"

	msgInvalidTxID       = "❌ That doesn't look like a valid Bitcoin transaction ID. Please check and try again."
	msgInvalidRemoveTxID = "❌ That doesn't look like a valid Bitcoin transaction ID."
	msgRemoveUsage       = "Usage: /remove <txid>"
	msgInternalError     = "❌ Something went wrong. Please try again later."
	msgUnknownCommand    = "Unknown command. Type /help for the list of commands."

	msgBlocksEnabled       = "🔔 You will now receive a notification every time a new block is found. Use /stopblocks to turn this off."
	msgBlocksDisabled      = "🚫 Block notifications disabled. You will no longer receive new block alerts."
	msgBlocksNotSubscribed = "You were not receiving block notifications."

	msgChartGenerating = "⏳ Generating liquidity chart..."
	msgChartFailed     = "❌ Failed to generate or send the liquidity chart. Please try again later."
	chartCaption       = "Here is the latest Magma liquidity chart (updated hourly)."

	msgNoWatchedTransactions = "You are not currently monitoring any transactions."
)

// watchReplies builds the replies to a txid submission. A registration that
// is still pending gets two messages, mirroring the status line with the
// monitoring confirmation.
func watchReplies(result txwatch.WatchResult, target int64) []string {
	if result.AlreadyConfirmed {
		return []string{fmt.Sprintf("✅ Transaction <code>%s</code> already has %d confirmations!", result.TxID, result.Confirmations)}
	}

	var replies []string
	if result.StatusKnown {
		replies = append(replies, fmt.Sprintf("Transaction <code>%s</code> currently has %d confirmation(s). Monitoring until it reaches %d.", result.TxID, result.Confirmations, target))
	} else {
		replies = append(replies, "⚠️ Could not check transaction status right now (API error), but will monitor it for you.")
	}

	return append(replies, fmt.Sprintf("Monitoring transaction: <code>%s</code>\nYou'll be notified when it reaches %d confirmations.", result.TxID, target))
}

// statusReply formats a chat's pending transaction listing.
func statusReply(lines []txwatch.TxStatusLine) string {
	if len(lines) == 0 {
		return msgNoWatchedTransactions
	}

	parts := make([]string, 0, len(lines)+1)
	parts = append(parts, "<b>Your monitored transactions:</b>")

	for _, line := range lines {
		if line.Failed {
			parts = append(parts, fmt.Sprintf("<code>%s</code> : ⚠️ Error fetching status", line.TxID))
		} else {
			parts = append(parts, fmt.Sprintf("<code>%s</code> : %d confirmation(s)", line.TxID, line.Confirmations))
		}
	}

	return strings.Join(parts, "\n")
}

// removedReply formats the acknowledgment of a /remove command.
func removedReply(txid string) string {
	return fmt.Sprintf("Stopped monitoring <code>%s</code>.", txid)
}

// notWatchingReply formats the reply when /remove names a transaction the
// chat never watched.
func notWatchingReply(txid string) string {
	return fmt.Sprintf("You were not monitoring <code>%s</code>.", txid)
}

// confirmedNotification formats the one-time confirmation alert.
func confirmedNotification(txid string, confirmations int64) string {
	return fmt.Sprintf("✅ Transaction <code>%s</code> has reached %d confirmations!", txid, confirmations)
}

// newBlockNotification formats the new-block alert.
func newBlockNotification(height int64) string {
	return fmt.Sprintf("🟦 New Bitcoin block found! Height: %d", height)
}
