package pool

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/subaccount-pool/internal/application"
	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const (
	barWidth   = 24
	maskedText = "********"
)

type RenderOptions struct {
	// ShowSecrets prints secrets in clear instead of masking them.
	ShowSecrets bool
}

func RenderSummary(summary application.PoolSummary) (string, error) {
	return run(func(s styles) string {
		return renderSummary(summary, s)
	})
}

func RenderRecord(record domain.Subaccount, opts RenderOptions) (string, error) {
	return run(func(s styles) string {
		return renderRecord(record, opts, s)
	})
}

func renderSummary(summary application.PoolSummary, s styles) string {
	total := len(summary.Index)
	lines := []string{
		s.title.Render(fmt.Sprintf("Subaccount Pool %s", summary.PrimaryKey)),
		s.header.Render(fmt.Sprintf("members: %d  free: %d  leased: %d", total, summary.Free, summary.Leased)),
	}

	if total == 0 {
		lines = append(lines, s.empty.Render("No pool members yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	lines = append(lines, lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.key.Render("leased:"),
		" ",
		renderBar(summary.Leased, total, barWidth, s),
		" ",
		s.detail.Render(fmt.Sprintf("%d/%d", summary.Leased, total)),
	))

	members := make([]string, 0, total)
	for _, entry := range summary.Index {
		members = append(members, memberLine(entry, s))
	}
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, members...)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func memberLine(entry domain.IndexEntry, s styles) string {
	state := s.free.Render("free")
	if entry.Used {
		state = s.leased.Render("leased")
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, s.member.Render(entry.APIKey), "  ", state)
}

func renderRecord(record domain.Subaccount, opts RenderOptions, s styles) string {
	state := s.free.Render("free")
	if record.Used {
		state = s.leased.Render("leased")
	}

	lines := []string{
		lipgloss.JoinHorizontal(lipgloss.Top, s.member.Render(record.APIKey), "  ", state),
		field("primary", record.PrimaryAccountAPIKey, s),
		field("name", record.Name, s),
		field("suspended", fmt.Sprintf("%t", record.Suspended), s),
		field("secret", secretText(record.Secret, opts), s),
	}

	if record.SignatureSecret == "" {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, s.key.Render("signature secret:"), " ", s.warning.Render("missing")))
	} else {
		lines = append(lines, field("signature secret", secretText(record.SignatureSecret, opts), s))
	}
	if !record.CreatedAt.IsZero() {
		lines = append(lines, field("created", record.CreatedAt.UTC().Format(time.RFC3339), s))
	}

	// Drift between the suspended flag and membership needs a reconcile.
	if record.Suspended == record.Used {
		lines = append(lines, s.warning.Render("[drift: run reconcile]"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func field(label, value string, s styles) string {
	if value == "" {
		value = "n/a"
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, s.key.Render(label+":"), " ", s.detail.Render(value))
}

func secretText(secret string, opts RenderOptions) string {
	if secret == "" || opts.ShowSecrets {
		return secret
	}
	return maskedText
}

func renderBar(used, total, width int, s styles) string {
	if width <= 0 || total <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * float64(used) / float64(total)))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}
