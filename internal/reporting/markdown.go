package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Epic NFT Gallery Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Contract: `%s`\n\n", r.Contract))
	if r.Account != "" {
		sb.WriteString(fmt.Sprintf("Account: `%s`\n\n", r.Account))
	}

	// Summary
	s := r.Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Generation | %d |\n", s.Generation))
	sb.WriteString(fmt.Sprintf("| Trigger | %s |\n", s.Trigger))
	sb.WriteString(fmt.Sprintf("| Minted | %d / %d |\n", s.Progress.Minted, s.Progress.MaxSupply))
	sb.WriteString(fmt.Sprintf("| Percent Minted | %.1f%% |\n", s.Progress.PercentMinted))
	sb.WriteString(fmt.Sprintf("| Remaining | %d |\n", s.Progress.Remaining))
	sb.WriteString(fmt.Sprintf("| Gallery Tokens | %d |\n", s.TotalTokens))
	sb.WriteString(fmt.Sprintf("| Owned Tokens | %d |\n", s.OwnedTokens))
	sb.WriteString(fmt.Sprintf("| Skipped Tokens | %d |\n", s.SkippedTokens))
	sb.WriteString(fmt.Sprintf("| Completed At (ms) | %d |\n", s.CompletedAt))
	sb.WriteString("\n")
	if s.Progress.SoldOut {
		sb.WriteString("**Sold out.**\n\n")
	}

	// Owned
	sb.WriteString("## My NFTs\n\n")
	if len(r.Owned) > 0 {
		sb.WriteString("| Token | Name | Description |\n")
		sb.WriteString("|-------|------|-------------|\n")
		for _, t := range r.Owned {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s |\n", t.TokenID, escapeCell(t.Name), escapeCell(t.Description)))
		}
	} else if r.Account == "" {
		sb.WriteString("No account connected.\n")
	} else {
		sb.WriteString("No NFTs owned by this account.\n")
	}
	sb.WriteString("\n")

	// All tokens
	sb.WriteString("## All NFTs\n\n")
	if len(r.Tokens) > 0 {
		sb.WriteString("| Token | Name | Owner |\n")
		sb.WriteString("|-------|------|-------|\n")
		for _, t := range r.Tokens {
			sb.WriteString(fmt.Sprintf("| %d | %s | `%s` |\n", t.TokenID, escapeCell(t.Name), t.Owner))
		}
	} else {
		sb.WriteString("No NFTs minted yet.\n")
	}
	sb.WriteString("\n")

	// Skipped
	if len(r.Skipped) > 0 {
		sb.WriteString("## Skipped Tokens\n\n")
		for _, sk := range r.Skipped {
			if sk.Detail != "" {
				sb.WriteString(fmt.Sprintf("- %d: %s (%s)\n", sk.TokenID, sk.Reason, sk.Detail))
			} else {
				sb.WriteString(fmt.Sprintf("- %d: %s\n", sk.TokenID, sk.Reason))
			}
		}
		sb.WriteString("\n")
	}

	// Passes
	if len(r.Passes) > 0 {
		sb.WriteString("## Recent Passes\n\n")
		sb.WriteString("| Generation | Trigger | Status | Supply | Tokens | Owned | Skipped | Duration (ms) |\n")
		sb.WriteString("|------------|---------|--------|--------|--------|-------|---------|---------------|\n")
		for _, p := range r.Passes {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %d | %d | %d | %d | %d |\n",
				p.Generation, p.Trigger, p.Status, p.Supply, p.TotalTokens, p.OwnedTokens, p.Skipped, p.DurationMs))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// escapeCell keeps user-controlled metadata from breaking table rows.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
