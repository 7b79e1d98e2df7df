package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/leadflow/internal/domain"
	"github.com/spec-kit/leadflow/internal/events"
	"github.com/spec-kit/leadflow/internal/followup"
	"github.com/spec-kit/leadflow/internal/kvstore"
	"github.com/spec-kit/leadflow/internal/pipeline"
	"github.com/spec-kit/leadflow/internal/repository"
	"github.com/spec-kit/leadflow/internal/seed"
	apperrors "github.com/spec-kit/leadflow/pkg/util/errorutil"
)

var fixtureNow = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

type transitionLog struct{ moves [][2]domain.LeadStatus }

func (l *transitionLog) RecordTransition(from, to domain.LeadStatus) {
	l.moves = append(l.moves, [2]domain.LeadStatus{from, to})
}

type leadEnv struct {
	svc         *LeadService
	repo        repository.LeadRepository
	history     repository.LeadHistoryRepository
	store       *kvstore.MemoryStore
	clock       *testClock
	transitions *transitionLog
	events      []events.Event
}

func newLeadEnv(t *testing.T, seeded bool) *leadEnv {
	t.Helper()
	env := &leadEnv{
		store:       kvstore.NewMemoryStore(),
		clock:       &testClock{now: fixtureNow},
		transitions: &transitionLog{},
	}
	env.repo = repository.NewLeadRepository(env.store, env.clock.Now)
	env.history = repository.NewLeadHistoryRepository(env.store, env.clock.Now)
	dispatcher := events.NewInMemoryDispatcher(nil)
	events.SubscribeAll(dispatcher, func(_ context.Context, e events.Event) error {
		env.events = append(env.events, e)
		return nil
	})
	env.svc = NewLeadService(LeadDependencies{
		LeadRepo:    env.repo,
		HistoryRepo: env.history,
		Dispatcher:  dispatcher,
		Transitions: env.transitions,
		Now:         env.clock.Now,
	})
	if seeded {
		require.NoError(t, env.repo.ReplaceAll(context.Background(), seed.DefaultLeads()))
	}
	return env
}

func (e *leadEnv) eventTypes() []events.EventType {
	out := make([]events.EventType, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.Type)
	}
	return out
}

func col(id pipeline.ColumnID) *pipeline.ColumnID { return &id }

func TestMoveLeadQualifiedToConverted(t *testing.T) {
	ctx := context.Background()
	env := newLeadEnv(t, true)
	env.clock.now = fixtureNow.Add(time.Minute)

	before, err := env.repo.GetByID(ctx, "3")
	require.NoError(t, err)
	require.Equal(t, "Qualified", before.Status)

	res, err := env.svc.MoveLead(ctx, events.Actor{Name: "Sarah Manager"}, MoveInput{
		LeadID:      "3",
		Source:      pipeline.ColumnInProgress,
		Destination: col(pipeline.ColumnConverted),
	})
	require.NoError(t, err)
	require.True(t, res.Applied)
	assert.Equal(t, "Converted", res.Lead.Status)
	assert.Equal(t, env.clock.now, res.Lead.UpdatedAt)
	assert.Equal(t, env.clock.now, res.Lead.LastActivity)
	assert.Equal(t, before.CreatedAt, res.Lead.CreatedAt)

	assert.Equal(t, [][2]domain.LeadStatus{{domain.LeadStatusInProgress, domain.LeadStatusConverted}}, env.transitions.moves)
	assert.Equal(t, []events.EventType{events.EventLeadStatusChanged}, env.eventTypes())
	payload := env.events[0].Payload.(events.LeadStatusChangedPayload)
	assert.Equal(t, "Qualified", payload.OldStatus)
	assert.Equal(t, "converted", payload.NewColumn)

	history, err := env.svc.History(ctx, "3")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Sarah Manager", history[0].ChangedBy)
}

func TestMoveLeadSameColumnIsNoop(t *testing.T) {
	ctx := context.Background()
	env := newLeadEnv(t, true)
	before, err := env.repo.GetByID(ctx, "2")
	require.NoError(t, err)

	env.clock.now = fixtureNow.Add(time.Hour)
	res, err := env.svc.MoveLead(ctx, events.Actor{}, MoveInput{
		LeadID:      "2",
		Source:      pipeline.ColumnContacted,
		Destination: col(pipeline.ColumnContacted),
	})
	require.NoError(t, err)
	assert.False(t, res.Applied)

	after, err := env.repo.GetByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
	assert.Equal(t, before.LastActivity, after.LastActivity)
	assert.Empty(t, env.events)
}

func TestMoveLeadWithoutDestinationIsNoop(t *testing.T) {
	env := newLeadEnv(t, true)
	res, err := env.svc.MoveLead(context.Background(), events.Actor{}, MoveInput{LeadID: "1", Source: pipeline.ColumnNew})
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Empty(t, env.events)
}

func TestMoveLeadErrors(t *testing.T) {
	ctx := context.Background()
	env := newLeadEnv(t, true)

	_, err := env.svc.MoveLead(ctx, events.Actor{}, MoveInput{LeadID: "missing", Source: pipeline.ColumnNew, Destination: col(pipeline.ColumnLost)})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = env.svc.MoveLead(ctx, events.Actor{}, MoveInput{LeadID: "1", Source: pipeline.ColumnNew, Destination: col("archived")})
	assert.True(t, pipeline.IsInvalidColumn(err))
}

func TestMoveLeadOutOfClosedColumn(t *testing.T) {
	env := newLeadEnv(t, true)
	res, err := env.svc.MoveLead(context.Background(), events.Actor{}, MoveInput{
		LeadID:      "5",
		Source:      pipeline.ColumnLost,
		Destination: col(pipeline.ColumnNew),
	})
	require.NoError(t, err)
	assert.Equal(t, "New", res.Lead.Status)
}

func TestMoveLeadKeepsTimestampsMonotonic(t *testing.T) {
	ctx := context.Background()
	env := newLeadEnv(t, false)
	lead, err := env.svc.CreateLead(ctx, events.Actor{}, LeadCreateInput{Name: "A"})
	require.NoError(t, err)

	env.clock.now = fixtureNow.Add(-time.Hour)
	res, err := env.svc.MoveLead(ctx, events.Actor{}, MoveInput{LeadID: lead.ID, Source: pipeline.ColumnNew, Destination: col(pipeline.ColumnContacted)})
	require.NoError(t, err)
	assert.False(t, res.Lead.UpdatedAt.Before(lead.UpdatedAt))
	assert.False(t, res.Lead.LastActivity.Before(lead.LastActivity))
}

func TestCountsOnFixture(t *testing.T) {
	env := newLeadEnv(t, true)
	counts, err := env.svc.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, followup.Counts{All: 13, Followed: 3, Scheduled: 5, NotFollowed: 5}, counts)
}

func TestCreateLeadNormalizesStatusAndRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	env := newLeadEnv(t, true)

	lead, err := env.svc.CreateLead(ctx, events.Actor{}, LeadCreateInput{
		Name:       "  New Person ",
		Email:      "new.person@example.com",
		Status:     "Qualified",
		AssignedTo: "John Sales",
	})
	require.NoError(t, err)
	assert.Equal(t, "New Person", lead.Name)
	assert.Equal(t, "In Progress", lead.Status)
	assert.Equal(t, []events.EventType{events.EventLeadCreated, events.EventLeadAssigned}, env.eventTypes())

	unknown, err := env.svc.CreateLead(ctx, events.Actor{}, LeadCreateInput{Name: "Odd", Status: "Negotiation"})
	require.NoError(t, err)
	assert.Equal(t, "New", unknown.Status)

	_, err = env.svc.CreateLead(ctx, events.Actor{}, LeadCreateInput{Name: "Dup", Email: "EMMA.WILSON@innovate.io"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	all, err := env.repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 15)
}

func TestCreateLeadValidation(t *testing.T) {
	env := newLeadEnv(t, false)
	_, err := env.svc.CreateLead(context.Background(), events.Actor{}, LeadCreateInput{Name: "  "})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	bad := 120
	_, err = env.svc.CreateLead(context.Background(), events.Actor{}, LeadCreateInput{Name: "x", Probability: &bad})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestUpdateLeadPublishesChanges(t *testing.T) {
	ctx := context.Background()
	env := newLeadEnv(t, true)

	status := "Follow-up"
	assignee := "Emily Davis"
	lead, err := env.svc.UpdateLead(ctx, events.Actor{}, "2", domain.LeadPatch{Status: &status, AssignedTo: &assignee})
	require.NoError(t, err)
	assert.Equal(t, "Follow-up", lead.Status)
	assert.Equal(t, "Emily Davis", lead.AssignedTo)
	assert.Equal(t, "Innovate.io", lead.Company)
	assert.Equal(t, []events.EventType{events.EventLeadUpdated, events.EventLeadStatusChanged, events.EventLeadAssigned}, env.eventTypes())
	assert.Equal(t, [][2]domain.LeadStatus{{domain.LeadStatusContacted, domain.LeadStatusNew}}, env.transitions.moves)

	_, err = env.svc.UpdateLead(ctx, events.Actor{}, "nope", domain.LeadPatch{Status: &status})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteLead(t *testing.T) {
	ctx := context.Background()
	env := newLeadEnv(t, true)

	require.NoError(t, env.svc.DeleteLead(ctx, events.Actor{}, "1"))
	assert.Equal(t, []events.EventType{events.EventLeadDeleted}, env.eventTypes())

	err := env.svc.DeleteLead(ctx, events.Actor{}, "1")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListLeadsFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	env := newLeadEnv(t, true)

	leads, counts, err := env.svc.ListLeads(ctx, LeadQuery{Tab: followup.TabNotFollowed})
	require.NoError(t, err)
	assert.Equal(t, 5, counts.NotFollowed)
	require.Len(t, leads, 5)
	for i := 1; i < len(leads); i++ {
		assert.False(t, leads[i].UpdatedAt.After(leads[i-1].UpdatedAt))
	}

	newStatus := domain.LeadStatusNew
	leads, _, err = env.svc.ListLeads(ctx, LeadQuery{Tab: followup.TabAll, Status: &newStatus})
	require.NoError(t, err)
	assert.Len(t, leads, 5)

	leads, _, err = env.svc.ListLeads(ctx, LeadQuery{Tab: followup.TabAll, Search: "TECHCORP"})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "1", leads[0].ID)
}

func TestNotesAndFollowups(t *testing.T) {
	ctx := context.Background()
	env := newLeadEnv(t, true)

	lead, note, err := env.svc.AddNote(ctx, events.Actor{}, "1", " Called, left voicemail ")
	require.NoError(t, err)
	assert.Equal(t, "Called, left voicemail", note.Content)
	require.Len(t, lead.Notes, 1)

	_, _, err = env.svc.AddNote(ctx, events.Actor{}, "1", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	lead, err = env.svc.DeleteNote(ctx, events.Actor{}, "1", note.ID)
	require.NoError(t, err)
	assert.Empty(t, lead.Notes)
	_, err = env.svc.DeleteNote(ctx, events.Actor{}, "1", note.ID)
	assert.True(t, apperrors.IsNotFound(err))

	next := fixtureNow.Add(48 * time.Hour)
	lead, err = env.svc.ScheduleFollowup(ctx, events.Actor{}, "6", next)
	require.NoError(t, err)
	require.NotNil(t, lead.NextFollowupDate)
	assert.True(t, followup.IsScheduled(*lead, fixtureNow))
	assert.True(t, followup.IsFollowed(*lead))

	lead, err = env.svc.CompleteFollowup(ctx, events.Actor{}, "6", time.Time{})
	require.NoError(t, err)
	assert.Nil(t, lead.NextFollowupDate)
	require.NotNil(t, lead.LastFollowupDate)
	assert.Equal(t, fixtureNow, *lead.LastFollowupDate)
}

func TestBoardOnFixture(t *testing.T) {
	env := newLeadEnv(t, true)
	board, err := env.svc.Board(context.Background(), followup.TabAll)
	require.NoError(t, err)

	require.Len(t, board.Columns, 5)
	ids := make([]pipeline.ColumnID, 0, 5)
	sizes := make([]int, 0, 5)
	for _, c := range board.Columns {
		ids = append(ids, c.ID)
		sizes = append(sizes, len(c.Leads))
	}
	assert.Equal(t, []pipeline.ColumnID{"new", "contacted", "in_progress", "converted", "lost"}, ids)
	assert.Equal(t, []int{5, 3, 2, 2, 1}, sizes)
	assert.True(t, decimal.NewFromInt(11500).Equal(board.Columns[3].Value))
	assert.Equal(t, 13, board.Counts.All)

	scheduled, err := env.svc.Board(context.Background(), followup.TabScheduled)
	require.NoError(t, err)
	total := 0
	for _, c := range scheduled.Columns {
		total += len(c.Leads)
	}
	assert.Equal(t, 5, total)
}

func TestDashboardOnFixture(t *testing.T) {
	env := newLeadEnv(t, true)
	report, err := env.svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 13, report.Total)
	assert.Equal(t, 5, report.ByStatus[domain.LeadStatusNew])
	assert.Equal(t, 2, report.ByStatus[domain.LeadStatusConverted])
	assert.Equal(t, 3, report.BySource["Website"])
	assert.Equal(t, 5, report.ByAssignee["John Sales"])
	assert.Equal(t, "15.38", report.ConversionRate.StringFixed(2))
	assert.Equal(t, "29200.00", report.PipelineValue.StringFixed(2))
	assert.Equal(t, "11500.00", report.WonValue.StringFixed(2))
	require.NotEmpty(t, report.TopAssignees)
	assert.Equal(t, "Emily Davis", report.TopAssignees[0].Name)
}

func TestImportLeads(t *testing.T) {
	ctx := context.Background()
	env := newLeadEnv(t, true)

	csv := "name,email,status\n" +
		"Fresh Lead,fresh@example.com,Won\n" +
		"Dup,emma.wilson@innovate.io,New\n" +
		",x@example.com,New\n"
	result, err := env.svc.ImportLeads(ctx, events.Actor{}, strings.NewReader(csv), "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, result.Warnings, 2)

	all, err := env.repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 14)
	assert.Equal(t, "Converted", all[13].Status)
}

func TestStorageFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	env := newLeadEnv(t, false)
	require.NoError(t, env.store.Set(ctx, kvstore.KeyLeads, []byte("not json")))

	_, err := env.svc.Counts(ctx)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStorage))
}

func patchAssignee(name string) domain.LeadPatch {
	return domain.LeadPatch{AssignedTo: &name}
}
