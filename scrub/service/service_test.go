package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/CMSgov/scrub-app/scrub/catalog"
	"github.com/CMSgov/scrub-app/scrub/constants"
	scruberrors "github.com/CMSgov/scrub-app/scrub/errors"
	"github.com/CMSgov/scrub-app/scrub/models"
	"github.com/CMSgov/scrub-app/scrub/testUtils"
	"github.com/CMSgov/scrub-app/scrub/validators"
)

type ServiceTestSuite struct {
	suite.Suite

	cfg        *Config
	catalog    *catalog.Catalog
	repository *models.MockRepository
	enqueuer   *MockEnqueuer
	service    Service
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (s *ServiceTestSuite) SetupTest() {
	s.cfg = &Config{Workers: 2, LookupTimeout: time.Second, VolumeThreshold: 3, MaxBatchSize: 5}
	s.catalog = catalog.Default()
	s.repository = &models.MockRepository{}
	s.enqueuer = &MockEnqueuer{}
	s.service = NewService(s.cfg, s.catalog, Options{
		Repository:  s.repository,
		Eligibility: validators.StaticEligibility(validators.Eligible),
		Enqueuer:    s.enqueuer,
	})
}

func (s *ServiceTestSuite) TearDownTest() {
	s.repository.AssertExpectations(s.T())
	s.enqueuer.AssertExpectations(s.T())
}

func cleanClaim(id string) models.Claim {
	return models.Claim{
		ID:             id,
		Patient:        models.Patient{ID: "PAT-1", Name: "Jane Doe", DateOfBirth: "1980-04-02"},
		Insurance:      models.Insurance{MemberID: "M123", PayerID: "P456"},
		Procedures:     []models.Procedure{{Code: "99213"}},
		Diagnoses:      []models.Diagnosis{{Code: "Z00.00"}},
		PlaceOfService: "11",
		ServiceDate:    "2024-03-01",
		TotalAmount:    decimal.RequireFromString("125.00"),
	}
}

func (s *ServiceTestSuite) TestValidateClaim() {
	claim := cleanClaim("CLM-1")
	s.repository.On("FindDuplicate", testUtils.CtxMatcher, "PAT-1", "2024-03-01", []string{"99213"}).Return(false, nil)

	result, err := s.service.ValidateClaim(context.Background(), &claim, nil)
	s.NoError(err)
	s.Equal(models.Passed, result.Status)
	s.Equal(100, result.Score)
}

func (s *ServiceTestSuite) TestValidateClaimDuplicate() {
	claim := cleanClaim("CLM-1")
	s.repository.On("FindDuplicate", testUtils.CtxMatcher, "PAT-1", "2024-03-01", []string{"99213"}).Return(true, nil)

	result, err := s.service.ValidateClaim(context.Background(), &claim, nil)
	s.NoError(err)
	s.Equal(models.Failed, result.Status)
	s.Require().Len(result.Errors, 1)
	s.Equal(catalog.DuplicateClaim, result.Errors[0].Code)
}

func (s *ServiceTestSuite) TestValidateClaimCategoryFilter() {
	claim := cleanClaim("CLM-1")
	claim.Procedures[0].Code = "9921"

	// billing is excluded so no duplicate lookup takes place
	result, err := s.service.ValidateClaim(context.Background(), &claim, []models.Category{models.Demographics})
	s.NoError(err)
	s.Equal(models.Passed, result.Status)
}

func (s *ServiceTestSuite) TestValidateClaimUnknownCategory() {
	claim := cleanClaim("CLM-1")
	_, err := s.service.ValidateClaim(context.Background(), &claim, []models.Category{"pharmacy"})
	s.True(scruberrors.IsFatalConfig(err))
}

func (s *ServiceTestSuite) TestValidateBatch() {
	claims := []models.Claim{cleanClaim("CLM-1"), cleanClaim("CLM-2")}
	claims[1].Patient.DateOfBirth = ""
	s.repository.On("FindDuplicate", testUtils.CtxMatcher, "PAT-1", "2024-03-01", []string{"99213"}).Return(false, nil)

	result, err := s.service.ValidateBatch(context.Background(), claims, nil)
	s.NoError(err)
	s.Equal(models.Summary{Total: 2, Passed: 1, Failed: 1, AverageScore: 95}, result.Summary)
	s.Equal("CLM-1", result.Results[0].ClaimID)
	s.Equal("CLM-2", result.Results[1].ClaimID)
}

func (s *ServiceTestSuite) TestValidateBatchTooLarge() {
	claims := make([]models.Claim, s.cfg.MaxBatchSize+1)

	result, err := s.service.ValidateBatch(context.Background(), claims, nil)
	s.Nil(result)
	var sizeErr *scruberrors.BatchSizeError
	s.Require().True(errors.As(err, &sizeErr))
	s.Equal(6, sizeErr.Size)
	s.Equal(5, sizeErr.Max)
}

func (s *ServiceTestSuite) TestSubmitBatch() {
	claims := []models.Claim{cleanClaim("CLM-1")}
	categories := []models.Category{models.Coding}

	var created models.Batch
	s.repository.On("CreateBatch", testUtils.CtxMatcher, mock.AnythingOfType("models.Batch")).
		Run(func(args mock.Arguments) { created = args.Get(1).(models.Batch) }).
		Return(nil)
	s.enqueuer.On("AddValidateBatchJob", testUtils.CtxMatcher, mock.MatchedBy(func(args models.ValidateBatchArgs) bool {
		return args.BatchID == created.ID && len(args.Claims) == 1 && args.Categories[0] == models.Coding
	})).Return(nil)

	b, err := s.service.SubmitBatch(context.Background(), claims, categories)
	s.NoError(err)
	s.NotEmpty(b.ID)
	s.Equal(created.ID, b.ID)
	s.Equal(constants.BatchPending, b.Status)
	s.Equal(1, b.ClaimCount)
}

func (s *ServiceTestSuite) TestSubmitBatchEnqueueFailure() {
	s.repository.On("CreateBatch", testUtils.CtxMatcher, mock.Anything).Return(nil)
	s.repository.On("UpdateBatchStatus", testUtils.CtxMatcher, mock.Anything, constants.BatchFailed).Return(nil)
	s.enqueuer.On("AddValidateBatchJob", testUtils.CtxMatcher, mock.Anything).Return(errors.New("queue down"))

	b, err := s.service.SubmitBatch(context.Background(), []models.Claim{cleanClaim("CLM-1")}, nil)
	s.Nil(b)
	s.EqualError(err, "failed to enqueue batch: queue down")
}

func (s *ServiceTestSuite) TestSubmitBatchFatalConfig() {
	b, err := s.service.SubmitBatch(context.Background(), []models.Claim{cleanClaim("CLM-1")}, []models.Category{"unknown"})
	s.Nil(b)
	s.True(scruberrors.IsFatalConfig(err))
}

func (s *ServiceTestSuite) TestGetBatch() {
	expected := &models.Batch{ID: "b-1", Status: constants.BatchCompleted}
	s.repository.On("GetBatch", testUtils.CtxMatcher, "b-1").Return(expected, nil)

	b, err := s.service.GetBatch(context.Background(), "b-1")
	s.NoError(err)
	s.Equal(expected, b)
}

func (s *ServiceTestSuite) TestListRules() {
	s.Len(s.service.ListRules(context.Background()), 10)

	coding := s.service.ListRules(context.Background(), models.Coding)
	s.Require().Len(coding, 3)
	for _, r := range coding {
		s.Equal(models.Coding, r.Category)
	}
}

func (s *ServiceTestSuite) TestSetRuleEnabled() {
	s.repository.On("SetRuleEnabled", testUtils.CtxMatcher, catalog.ClaimVolume, false).Return(nil)

	rule, err := s.service.SetRuleEnabled(context.Background(), catalog.ClaimVolume, false)
	s.NoError(err)
	s.False(rule.Enabled)

	for _, r := range s.catalog.ListEnabledRules() {
		s.NotEqual(catalog.ClaimVolume, r.ID)
	}
}

func (s *ServiceTestSuite) TestSetRuleEnabledUnknownRule() {
	_, err := s.service.SetRuleEnabled(context.Background(), "NOPE_001", false)
	s.True(scruberrors.IsRuleNotFound(err))
}

func (s *ServiceTestSuite) TestSetRuleEnabledPersistFailure() {
	s.repository.On("SetRuleEnabled", testUtils.CtxMatcher, catalog.ClaimVolume, false).Return(errors.New("db down"))

	_, err := s.service.SetRuleEnabled(context.Background(), catalog.ClaimVolume, false)
	s.Error(err)

	rule, err := s.catalog.Rule(catalog.ClaimVolume)
	s.NoError(err)
	s.True(rule.Enabled, "catalog must not change when the setting cannot be stored")
}

func (s *ServiceTestSuite) TestSyncRuleSettings() {
	s.repository.On("GetRuleSettings", testUtils.CtxMatcher).Return([]models.RuleSetting{
		{RuleID: catalog.MedicalNecessity, Enabled: false},
		{RuleID: "RETIRED_001", Enabled: true},
	}, nil)

	s.NoError(s.service.SyncRuleSettings(context.Background()))
	rule, err := s.catalog.Rule(catalog.MedicalNecessity)
	s.NoError(err)
	s.False(rule.Enabled)
}

func (s *ServiceTestSuite) TestSyncRuleSettingsError() {
	s.repository.On("GetRuleSettings", testUtils.CtxMatcher).Return(nil, errors.New("db down"))
	s.EqualError(s.service.SyncRuleSettings(context.Background()), "failed to load rule settings: db down")
}

func TestServiceWithoutRepository(t *testing.T) {
	svc := NewService(&Config{}, catalog.Default(), Options{})

	claim := cleanClaim("CLM-1")
	result, err := svc.ValidateClaim(context.Background(), &claim, nil)
	require.NoError(t, err)
	// eligibility cannot be confirmed without a service
	assert.Equal(t, models.Warnings, result.Status)

	_, err = svc.SubmitBatch(context.Background(), []models.Claim{claim}, nil)
	assert.Equal(t, ErrAsyncUnavailable, err)
	_, err = svc.GetBatch(context.Background(), "b-1")
	assert.Equal(t, ErrAsyncUnavailable, err)
	assert.NoError(t, svc.SyncRuleSettings(context.Background()))

	rule, err := svc.SetRuleEnabled(context.Background(), catalog.ClaimVolume, false)
	assert.NoError(t, err)
	assert.False(t, rule.Enabled)
}

func TestLoadCatalog(t *testing.T) {
	cat, err := LoadCatalog(&Config{})
	assert.NoError(t, err)
	assert.Len(t, cat.ListRules(), 10)

	_, err = LoadCatalog(&Config{CatalogPath: "testdata/missing.toml"})
	assert.Contains(t, err.Error(), constants.CatalogLoadErr)
}
