package sendquotenotification

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cpq-workers/internal/common/logger"
	"cpq-workers/internal/models"
	"cpq-workers/internal/pricing/engine"
)

type MockSES struct {
	mock.Mock
}

func (m *MockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ses.SendEmailOutput), args.Error(1)
}

type MockSNS struct {
	mock.Mock
}

func (m *MockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sns.PublishOutput), args.Error(1)
}

func newTestHandler(t *testing.T, config *Config, sesMock SESService, snsMock SNSService) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, dbmock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &Handler{
		config:    config,
		db:        db,
		logger:    logger.NewNoOpLogger(),
		sesClient: sesMock,
		snsClient: snsMock,
	}, dbmock
}

func warningInput() *Input {
	return &Input{
		LeadID:          "lead-22",
		QuoteNumber:     "Q-2026-0310",
		IntegrityStatus: models.IntegrityWarning,
		TotalPrice:      22840.00,
		MarginWarnings: []engine.MarginWarning{{
			Code:       engine.WarningBelowGuardrail,
			Target:     0.40,
			Calculated: 0.31,
		}},
	}
}

func expectOwnerLookup(dbmock sqlmock.Sqlmock, email, phone string) {
	dbmock.ExpectQuery(`SELECT owner_email, owner_phone FROM leads`).
		WithArgs("lead-22").
		WillReturnRows(sqlmock.NewRows([]string{"owner_email", "owner_phone"}).AddRow(email, phone))
}

func TestExecuteSkipsPassingQuotes(t *testing.T) {
	h, _ := newTestHandler(t, LoadConfig(), &MockSES{}, &MockSNS{})

	input := warningInput()
	input.IntegrityStatus = models.IntegrityPass
	input.MarginWarnings = nil

	output, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, StatusSkipped, output.Status)
	assert.False(t, output.EmailSent)
}

func TestExecuteEmailsOwnerOnWarning(t *testing.T) {
	sesMock := &MockSES{}
	sesMock.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		return len(in.Destination.ToAddresses) == 1 &&
			in.Destination.ToAddresses[0] == "owner@example.com"
	})).Return(&ses.SendEmailOutput{}, nil)

	h, dbmock := newTestHandler(t, LoadConfig(), sesMock, &MockSNS{})
	expectOwnerLookup(dbmock, "owner@example.com", "")

	output, err := h.Execute(context.Background(), warningInput())
	require.NoError(t, err)

	assert.Equal(t, StatusSent, output.Status)
	assert.True(t, output.EmailSent)
	assert.False(t, output.SMSSent)
	sesMock.AssertExpectations(t)
}

func TestExecuteEscalatesBlockedQuotesOverSMS(t *testing.T) {
	sesMock := &MockSES{}
	sesMock.On("SendEmail", mock.Anything, mock.Anything).Return(&ses.SendEmailOutput{}, nil)
	snsMock := &MockSNS{}
	snsMock.On("Publish", mock.Anything, mock.Anything).Return(&sns.PublishOutput{}, nil)

	config := LoadConfig()
	config.SMSEscalateBlocked = true

	h, dbmock := newTestHandler(t, config, sesMock, snsMock)
	expectOwnerLookup(dbmock, "owner@example.com", "+15550100")

	input := warningInput()
	input.IntegrityStatus = models.IntegrityBlocked

	output, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, StatusSent, output.Status)
	assert.True(t, output.EmailSent)
	assert.True(t, output.SMSSent)
	snsMock.AssertExpectations(t)
}

func TestExecuteWarningNeverTriggersSMS(t *testing.T) {
	sesMock := &MockSES{}
	sesMock.On("SendEmail", mock.Anything, mock.Anything).Return(&ses.SendEmailOutput{}, nil)
	snsMock := &MockSNS{}

	config := LoadConfig()
	config.SMSEscalateBlocked = true

	h, dbmock := newTestHandler(t, config, sesMock, snsMock)
	expectOwnerLookup(dbmock, "owner@example.com", "+15550100")

	output, err := h.Execute(context.Background(), warningInput())
	require.NoError(t, err)

	assert.True(t, output.EmailSent)
	assert.False(t, output.SMSSent)
	snsMock.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestExecuteReportsFailureWhenEmailFails(t *testing.T) {
	sesMock := &MockSES{}
	sesMock.On("SendEmail", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	h, dbmock := newTestHandler(t, LoadConfig(), sesMock, &MockSNS{})
	expectOwnerLookup(dbmock, "owner@example.com", "")

	output, err := h.Execute(context.Background(), warningInput())
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, output.Status)
}

func TestExecuteSkipsWhenOwnerMissing(t *testing.T) {
	h, dbmock := newTestHandler(t, LoadConfig(), &MockSES{}, &MockSNS{})
	dbmock.ExpectQuery(`SELECT owner_email, owner_phone FROM leads`).
		WithArgs("lead-22").
		WillReturnRows(sqlmock.NewRows([]string{"owner_email", "owner_phone"}))

	output, err := h.Execute(context.Background(), warningInput())
	require.NoError(t, err)

	assert.Equal(t, StatusSkipped, output.Status)
}
