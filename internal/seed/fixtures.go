// Package seed provides the default data a fresh installation starts with.
package seed

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/leadflow/internal/domain"
)

// DefaultAccount is a seeded login.
type DefaultAccount struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// DefaultAccounts are created when the user directory is empty.
var DefaultAccounts = []DefaultAccount{
	{Name: "Admin User", Email: "admin@leadflow.io", Password: "admin123", Role: domain.RoleAdmin},
	{Name: "Sarah Manager", Email: "manager@leadflow.io", Password: "manager123", Role: domain.RoleSalesManager},
	{Name: "John Sales", Email: "sales@leadflow.io", Password: "sales123", Role: domain.RoleSalesperson},
}

type leadFixture struct {
	name, email, company, phone, source, status, assignee string
	created                                               string
	last, next                                            string
	amount                                                string
	probability                                           int
}

// Statuses deliberately include legacy aliases (Qualified, Won, New Lead,
// InProgress, Follow-up, Negotiation) so the normalizer is exercised.
var leadFixtures = []leadFixture{
	{name: "Michael Brown", email: "michael.brown@techcorp.com", company: "TechCorp", phone: "+1 555 0101", source: "Website", status: "New", assignee: "John Sales", created: "2025-01-14"},
	{name: "Emma Wilson", email: "emma.wilson@innovate.io", company: "Innovate.io", phone: "+1 555 0102", source: "Referral", status: "Contacted", assignee: "John Sales", created: "2025-01-03", last: "2025-01-10", next: "2025-01-20", amount: "5000", probability: 30},
	{name: "David Lee", email: "david.lee@globalsys.com", company: "Global Systems", phone: "+1 555 0103", source: "LinkedIn", status: "Qualified", assignee: "Sarah Manager", created: "2024-12-20", next: "2025-01-12", amount: "12000", probability: 60},
	{name: "Sophia Martinez", email: "sophia.m@brightpath.com", company: "BrightPath", phone: "+1 555 0104", source: "Trade Show", status: "Won", assignee: "Sarah Manager", created: "2024-12-10", last: "2025-01-05", amount: "8000", probability: 100},
	{name: "James Taylor", email: "j.taylor@northwind.com", company: "Northwind", phone: "+1 555 0105", source: "Cold Call", status: "Lost", assignee: "Emily Davis", created: "2024-12-05", amount: "4000", probability: 10},
	{name: "Olivia Anderson", email: "olivia@cloudnine.app", company: "CloudNine", phone: "+1 555 0106", source: "Website", status: "Contacted", assignee: "Emily Davis", created: "2025-01-08"},
	{name: "William Thomas", email: "w.thomas@summitco.com", company: "Summit Co", phone: "+1 555 0107", source: "Email Campaign", status: "New Lead", assignee: "John Sales", created: "2025-01-12", next: "2025-01-18"},
	{name: "Isabella Jackson", email: "isabella.j@vertex.dev", company: "Vertex", phone: "+1 555 0108", source: "Referral", status: "InProgress", assignee: "Sarah Manager", created: "2024-12-28", last: "2025-01-08", next: "2025-01-22", amount: "20000", probability: 50},
	{name: "Benjamin White", email: "ben.white@pioneer.org", company: "Pioneer", phone: "+1 555 0109", source: "LinkedIn", status: "Follow-up", assignee: "Emily Davis", created: "2025-01-02", last: "2025-01-09", next: "2025-01-14"},
	{name: "Mia Harris", email: "mia.harris@quantumleap.ai", company: "Quantum Leap", phone: "+1 555 0110", source: "Website", status: "New", assignee: "John Sales", created: "2025-01-13", next: "2025-01-25"},
	{name: "Lucas Clark", email: "lucas.clark@redwood.com", company: "Redwood", phone: "+1 555 0111", source: "Trade Show", status: "Negotiation", assignee: "Sarah Manager", created: "2024-12-15", next: "2025-01-30", amount: "15000", probability: 70},
	{name: "Charlotte Lewis", email: "c.lewis@evergreen.co", company: "Evergreen", phone: "+1 555 0112", source: "Referral", status: "Converted", assignee: "Emily Davis", created: "2024-11-25", last: "2025-01-02", amount: "3500", probability: 100},
	{name: "Henry Walker", email: "henry.walker@atlas.net", company: "Atlas", phone: "+1 555 0113", source: "Cold Call", status: "Contacted", assignee: "John Sales", created: "2025-01-06", last: "2025-01-11"},
}

// DefaultLeads returns the demo lead collection with ids "1" through "13".
// Dates are fixed in January 2025.
func DefaultLeads() []domain.Lead {
	leads := make([]domain.Lead, 0, len(leadFixtures))
	for i, f := range leadFixtures {
		created := day(f.created)
		lead := domain.Lead{
			ID:               strconv.Itoa(i + 1),
			Name:             f.name,
			Email:            f.email,
			Company:          f.company,
			Phone:            f.phone,
			Source:           f.source,
			Status:           f.status,
			AssignedTo:       f.assignee,
			LastFollowupDate: optionalDay(f.last),
			NextFollowupDate: optionalDay(f.next),
			Notes:            []domain.Note{},
			CreatedAt:        created,
			UpdatedAt:        created,
			LastActivity:     created,
		}
		if lead.LastFollowupDate != nil {
			lead.UpdatedAt = *lead.LastFollowupDate
			lead.LastActivity = *lead.LastFollowupDate
		}
		if f.amount != "" {
			amount := decimal.RequireFromString(f.amount)
			prob := f.probability
			lead.DealAmount = &amount
			lead.Probability = &prob
		}
		leads = append(leads, lead)
	}
	return leads
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t.Add(9 * time.Hour)
}

func optionalDay(s string) *time.Time {
	if s == "" {
		return nil
	}
	t := day(s)
	return &t
}
