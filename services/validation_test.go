package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-review-gate/models"
)

type fakeTracker struct {
	statuses map[string]models.TrackerStatus
	err      error
	calls    []string
}

func (f *fakeTracker) Lookup(_ context.Context, id string) (models.TrackerStatus, error) {
	f.calls = append(f.calls, id)
	if f.err != nil {
		return 0, f.err
	}
	status, ok := f.statuses[id]
	if !ok {
		return models.TrackerStatusNotFound, nil
	}
	return status, nil
}

func newTestValidator(t *testing.T, tracker Tracker, cfg models.ValidationConfig) *Validator {
	t.Helper()
	rules, err := NewPatternRules(DefaultTicketPrefixes)
	require.NoError(t, err)
	return NewValidator(rules, tracker, cfg)
}

var allChecks = models.ValidationConfig{
	TitleMatchesBranch:  true,
	ValidateWithTracker: true,
	FailOnDoneStatus:    true,
}

func TestValidate_CompliantRequest(t *testing.T) {
	// トラッカー無効、タイトルとブランチのチェックのみ
	v := newTestValidator(t, nil, models.ValidationConfig{TitleMatchesBranch: true})

	errs, err := v.Validate(context.Background(), models.Request{
		Title:  "IO-42 add retries",
		Branch: "team/io-42-add-retries",
	})

	assert.NoError(t, err)
	assert.True(t, errs.Passed())
}

func TestValidate_AllChecksEnabled_Passes(t *testing.T) {
	tracker := &fakeTracker{statuses: map[string]models.TrackerStatus{"IO-42": models.TrackerStatusOpen}}
	v := newTestValidator(t, tracker, allChecks)

	errs, err := v.Validate(context.Background(), models.Request{
		Title:  "[io-42] add retries",
		Branch: "team/IO-42-add-retries",
	})

	assert.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, []string{"IO-42"}, tracker.calls)
}

func TestValidate_TitleMissingTicket(t *testing.T) {
	tracker := &fakeTracker{}
	v := newTestValidator(t, tracker, allChecks)

	errs, err := v.Validate(context.Background(), models.Request{
		Title:  "add retries",
		Branch: "team/io-42-add-retries",
	})

	assert.NoError(t, err)
	if diff := cmp.Diff(models.ErrorReport{msgTitleMissingTicket}, errs); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
	// 後続のチェックは実行されない
	assert.Empty(t, tracker.calls)
}

func TestValidate_BranchMissingTicket(t *testing.T) {
	tracker := &fakeTracker{}
	v := newTestValidator(t, tracker, allChecks)

	errs, err := v.Validate(context.Background(), models.Request{
		Title:  "IO-42 add retries",
		Branch: "add-retries",
	})

	assert.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, `* Branch name does not seem to contain reference to JIRA ticket (expected ^[^/]+/(MOFAB|IO)-\d+-.*$)`, errs[0])
	assert.Empty(t, tracker.calls)
}

func TestValidate_BothPatternsFail(t *testing.T) {
	v := newTestValidator(t, &fakeTracker{}, allChecks)

	errs, err := v.Validate(context.Background(), models.Request{Title: "nothing", Branch: "main"})

	assert.NoError(t, err)
	assert.Len(t, errs, 2)
	assert.Equal(t, msgTitleMissingTicket, errs[0])
}

func TestValidate_TitleBranchMismatch(t *testing.T) {
	tracker := &fakeTracker{}
	v := newTestValidator(t, tracker, allChecks)

	errs, err := v.Validate(context.Background(), models.Request{
		Title:  "IO-1 add retries",
		Branch: "team/io-2-add-retries",
	})

	assert.NoError(t, err)
	assert.Equal(t, models.ErrorReport{"* Title references IO-1 but branch name references IO-2"}, errs)
	// 不一致がある時点で Jira は見ない
	assert.Empty(t, tracker.calls)
}

func TestValidate_MismatchAllowedChecksBothTickets(t *testing.T) {
	tracker := &fakeTracker{statuses: map[string]models.TrackerStatus{
		"IO-2": models.TrackerStatusOpen,
	}}
	v := newTestValidator(t, tracker, models.ValidationConfig{ValidateWithTracker: true})

	errs, err := v.Validate(context.Background(), models.Request{
		Title:  "IO-1 add retries",
		Branch: "team/io-2-add-retries",
	})

	assert.NoError(t, err)
	// ブランチ → タイトルの順で照会する
	assert.Equal(t, []string{"IO-2", "IO-1"}, tracker.calls)
	assert.Equal(t, models.ErrorReport{"* JIRA ticket IO-1 does not exist"}, errs)
}

func TestValidate_TicketDone(t *testing.T) {
	tracker := &fakeTracker{statuses: map[string]models.TrackerStatus{"IO-42": models.TrackerStatusDone}}
	req := models.Request{Title: "IO-42 x", Branch: "team/io-42-x"}

	t.Run("fail on done", func(t *testing.T) {
		v := newTestValidator(t, tracker, allChecks)
		errs, err := v.Validate(context.Background(), req)
		assert.NoError(t, err)
		assert.Equal(t, models.ErrorReport{"* JIRA ticket IO-42 has status done"}, errs)
	})

	t.Run("done allowed", func(t *testing.T) {
		cfg := allChecks
		cfg.FailOnDoneStatus = false
		v := newTestValidator(t, tracker, cfg)
		errs, err := v.Validate(context.Background(), req)
		assert.NoError(t, err)
		assert.Empty(t, errs)
	})
}

func TestValidate_TicketNotFoundIsComplianceError(t *testing.T) {
	v := newTestValidator(t, &fakeTracker{}, allChecks)

	errs, err := v.Validate(context.Background(), models.Request{Title: "IO-404 x", Branch: "team/io-404-x"})

	assert.NoError(t, err)
	assert.Equal(t, models.ErrorReport{"* JIRA ticket IO-404 does not exist"}, errs)
}

func TestValidate_TrackerFailureAborts(t *testing.T) {
	boom := errors.New("connection refused")
	v := newTestValidator(t, &fakeTracker{err: boom}, allChecks)

	errs, err := v.Validate(context.Background(), models.Request{Title: "IO-42 x", Branch: "team/io-42-x"})

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, errs)
}

func TestValidate_TrackerEnabledWithoutClient(t *testing.T) {
	v := newTestValidator(t, nil, allChecks)

	_, err := v.Validate(context.Background(), models.Request{Title: "IO-42 x", Branch: "team/io-42-x"})

	assert.Error(t, err)
}

func TestTrackerOutcomesCoverAllStatuses(t *testing.T) {
	for _, s := range []models.TrackerStatus{
		models.TrackerStatusOpen,
		models.TrackerStatusDone,
		models.TrackerStatusNotFound,
	} {
		_, ok := trackerOutcomes[s]
		assert.True(t, ok, "no outcome for %s", s)
	}
}
