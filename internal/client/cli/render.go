package cli

import (
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/loominal/loominal/internal/client/models"
)

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		String()
}

func organizationsTable(orgs []models.Organization, current *models.Organization) string {
	rows := make([][]string, 0, len(orgs))
	for _, o := range orgs {
		mark := ""
		if current != nil && current.ID == o.ID {
			mark = "*"
		}
		kind := "team"
		if o.IsPersonal {
			kind = "personal"
		}
		rows = append(rows, []string{
			mark,
			strconv.FormatInt(o.ID, 10),
			o.Name,
			o.Slug,
			kind,
			string(o.PlanType),
			strconv.Itoa(o.MemberCount),
		})
	}
	return renderTable([]string{"", "ID", "NAME", "SLUG", "TYPE", "PLAN", "MEMBERS"}, rows)
}

func membersTable(members []models.Member) string {
	rows := make([][]string, 0, len(members))
	for _, m := range members {
		rows = append(rows, []string{
			strconv.FormatInt(m.ID, 10),
			m.Email,
			m.DisplayName,
			string(m.Role),
			formatDate(m.JoinedAt),
		})
	}
	return renderTable([]string{"ID", "EMAIL", "NAME", "ROLE", "JOINED"}, rows)
}

func invitationsTable(invitations []models.Invitation) string {
	rows := make([][]string, 0, len(invitations))
	for _, inv := range invitations {
		rows = append(rows, []string{
			strconv.FormatInt(inv.ID, 10),
			inv.Email,
			string(inv.Role),
			string(inv.Status),
			formatDate(inv.ExpiresAt),
		})
	}
	return renderTable([]string{"ID", "EMAIL", "ROLE", "STATUS", "EXPIRES"}, rows)
}

func formatDate(t models.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateOnly)
}
