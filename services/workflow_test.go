package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kendall-kelly/artisan-marketplace-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// WorkflowTestSuite drives the custom request, order, milestone and rating services together
type WorkflowTestSuite struct {
	suite.Suite
	ctx      context.Context
	db       *gorm.DB
	buyer    *models.User
	artisan  *models.User
	other    *models.User
	requests *CustomRequestService
	orders   *OrderService
	stages   *MilestoneService
	ratings  *RatingService
}

func (s *WorkflowTestSuite) SetupTest() {
	t := s.T()
	s.ctx = context.Background()
	s.db = setupServiceDB(t)
	s.buyer = createUser(t, s.db, "auth0|buyer", models.UserTypeBuyer)
	s.artisan = createUser(t, s.db, "auth0|artisan", models.UserTypeArtisan)
	s.other = createUser(t, s.db, "auth0|other-artisan", models.UserTypeArtisan)

	s.requests = NewCustomRequestService(s.db)
	s.orders = NewOrderService(s.db)
	s.stages = NewMilestoneService(s.db)
	s.ratings = NewRatingService(s.db)
}

func TestWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(WorkflowTestSuite))
}

func (s *WorkflowTestSuite) deadline() time.Time {
	return time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
}

// acceptedOrder runs a custom request up to an accepted custom order
func (s *WorkflowTestSuite) acceptedOrder() (*models.CustomDesignRequest, *models.Order) {
	request, err := s.requests.Create(s.ctx, s.buyer, CreateCustomRequestInput{
		ArtisanID:   s.artisan.ID,
		Description: "Walnut jewellery box",
		Deadline:    s.deadline(),
	})
	s.Require().NoError(err)

	quote := decimal.RequireFromString("120.00")
	request, err = s.requests.Quote(s.ctx, s.artisan, request.ID, QuoteInput{QuoteAmount: &quote, Accept: true})
	s.Require().NoError(err)

	order, err := s.orders.CreateFromCustomRequest(s.ctx, s.buyer, CustomOrderInput{
		CustomRequestID: request.ID,
		TotalAmount:     quote,
	})
	s.Require().NoError(err)

	order, err = s.orders.Accept(s.ctx, s.artisan, order.ID)
	s.Require().NoError(err)
	return request, order
}

func (s *WorkflowTestSuite) TestCustomOrderLifecycle() {
	request, err := s.requests.Create(s.ctx, s.buyer, CreateCustomRequestInput{
		ArtisanID:   s.artisan.ID,
		Description: "Oak rocking chair",
		Deadline:    s.deadline(),
	})
	s.Require().NoError(err)
	s.Equal(models.CustomRequestMaterialSourcing, request.Status)
	s.False(request.IsAccepted)
	s.Equal(1, request.Version)

	// Placing the order before acceptance is refused
	_, err = s.orders.CreateFromCustomRequest(s.ctx, s.buyer, CustomOrderInput{CustomRequestID: request.ID})
	s.ErrorIs(err, ErrNotAccepted)

	quote := decimal.RequireFromString("120.00")
	request, err = s.requests.Quote(s.ctx, s.artisan, request.ID, QuoteInput{QuoteAmount: &quote, Accept: true})
	s.Require().NoError(err)
	s.True(request.IsAccepted)
	s.True(request.QuoteAmount.Valid)
	s.True(request.QuoteAmount.Decimal.Equal(quote))
	s.Equal(2, request.Version)

	order, err := s.orders.CreateFromCustomRequest(s.ctx, s.buyer, CustomOrderInput{
		CustomRequestID: request.ID,
		TotalAmount:     quote,
	})
	s.Require().NoError(err)
	s.Equal(models.OrderPending, order.Status)
	s.Equal(models.OrderTypeCustom, order.OrderType)
	s.Equal(s.artisan.ID, order.ArtisanID)
	s.Equal(1, order.Quantity)

	order, err = s.orders.Accept(s.ctx, s.artisan, order.ID)
	s.Require().NoError(err)
	s.Equal(models.OrderAccepted, order.Status)

	first, err := s.stages.Post(s.ctx, s.artisan, order.ID, PostMilestoneInput{Status: models.MilestoneInProgress})
	s.Require().NoError(err)
	second, err := s.stages.Post(s.ctx, s.artisan, order.ID, PostMilestoneInput{Status: models.MilestoneCompleted})
	s.Require().NoError(err)

	result, err := s.stages.Approve(s.ctx, s.buyer, first.ID)
	s.Require().NoError(err)
	s.True(result.Milestone.BuyerApproval)
	s.NotNil(result.Milestone.ApprovalTimestamp)
	s.Equal(models.OrderAccepted, result.Order.Status)

	result, err = s.stages.Approve(s.ctx, s.buyer, second.ID)
	s.Require().NoError(err)
	s.Equal(models.OrderCompleted, result.Order.Status)

	rating, err := s.ratings.Submit(s.ctx, s.buyer, order.ID, 5, nil)
	s.Require().NoError(err)
	s.Equal(5, rating.Rating)

	_, err = s.ratings.Submit(s.ctx, s.buyer, order.ID, 4, nil)
	s.ErrorIs(err, ErrAlreadyRated)

	// The request is frozen once its order is completed
	newQuote := decimal.RequireFromString("150.00")
	_, err = s.requests.Quote(s.ctx, s.artisan, request.ID, QuoteInput{QuoteAmount: &newQuote})
	s.ErrorIs(err, ErrRequestLocked)
	_, err = s.requests.AdvanceStatus(s.ctx, s.artisan, request.ID, models.CustomRequestInProgress)
	s.ErrorIs(err, ErrRequestLocked)
}

func (s *WorkflowTestSuite) TestCreateRequestRules() {
	_, err := s.requests.Create(s.ctx, s.artisan, CreateCustomRequestInput{ArtisanID: s.other.ID, Deadline: s.deadline()})
	s.ErrorIs(err, ErrForbidden)

	_, err = s.requests.Create(s.ctx, s.buyer, CreateCustomRequestInput{ArtisanID: s.artisan.ID})
	var verrs models.ValidationErrors
	s.Require().ErrorAs(err, &verrs)
	s.True(verrs.Has("deadline"))

	var count int64
	s.db.Model(&models.CustomDesignRequest{}).Count(&count)
	s.Equal(int64(0), count)
}

func (s *WorkflowTestSuite) TestAdvanceStatusStepsForwardOnly() {
	request, _ := s.acceptedOrder()

	_, err := s.requests.AdvanceStatus(s.ctx, s.artisan, request.ID, models.CustomRequestCompleted)
	s.ErrorIs(err, ErrInvalidTransition)

	request, err = s.requests.AdvanceStatus(s.ctx, s.artisan, request.ID, models.CustomRequestInProgress)
	s.Require().NoError(err)
	s.Equal(models.CustomRequestInProgress, request.Status)

	_, err = s.requests.AdvanceStatus(s.ctx, s.other, request.ID, models.CustomRequestCompleted)
	s.ErrorIs(err, ErrForbidden)

	request, err = s.requests.AdvanceStatus(s.ctx, s.artisan, request.ID, models.CustomRequestCompleted)
	s.Require().NoError(err)
	s.Equal(models.CustomRequestCompleted, request.Status)

	_, err = s.requests.AdvanceStatus(s.ctx, s.artisan, request.ID, models.CustomRequestMaterialSourcing)
	s.ErrorIs(err, ErrInvalidTransition)
}

func (s *WorkflowTestSuite) TestAcceptanceIsNotWithdrawn() {
	request, _ := s.acceptedOrder()

	amount := decimal.RequireFromString("99.99")
	updated, err := s.requests.Quote(s.ctx, s.artisan, request.ID, QuoteInput{LabourPrice: &amount, Accept: false})
	s.Require().NoError(err)
	s.True(updated.IsAccepted)
	s.True(updated.QuoteAmount.Decimal.Equal(decimal.RequireFromString("120")))
	s.True(updated.LabourPrice.Decimal.Equal(amount))
}

func (s *WorkflowTestSuite) TestSecondLiveOrderForRequestConflicts() {
	request, _ := s.acceptedOrder()

	_, err := s.orders.CreateFromCustomRequest(s.ctx, s.buyer, CustomOrderInput{CustomRequestID: request.ID})
	s.ErrorIs(err, ErrConflict)
}

func (s *WorkflowTestSuite) TestOrderCreationClaimsRequest() {
	request, err := s.requests.Create(s.ctx, s.buyer, CreateCustomRequestInput{ArtisanID: s.artisan.ID, Deadline: s.deadline()})
	s.Require().NoError(err)
	request, err = s.requests.Quote(s.ctx, s.artisan, request.ID, QuoteInput{Accept: true})
	s.Require().NoError(err)

	const buyers = 5
	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.orders.CreateFromCustomRequest(s.ctx, s.buyer, CustomOrderInput{CustomRequestID: request.ID})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, ErrConflict)
	}
	s.Equal(1, succeeded)

	var live int64
	s.Require().NoError(s.db.Model(&models.Order{}).Where("custom_request_id = ?", request.ID).Count(&live).Error)
	s.Equal(int64(1), live)

	stored, err := loadCustomRequest(s.db, request.ID)
	s.Require().NoError(err)
	s.Equal(request.Version+1, stored.Version)
}

func (s *WorkflowTestSuite) TestRejectRecordsReasonAndDate() {
	request, err := s.requests.Create(s.ctx, s.buyer, CreateCustomRequestInput{ArtisanID: s.artisan.ID, Deadline: s.deadline()})
	s.Require().NoError(err)
	_, err = s.requests.Quote(s.ctx, s.artisan, request.ID, QuoteInput{Accept: true})
	s.Require().NoError(err)
	order, err := s.orders.CreateFromCustomRequest(s.ctx, s.buyer, CustomOrderInput{CustomRequestID: request.ID})
	s.Require().NoError(err)

	at := time.Date(2025, 11, 2, 9, 30, 0, 0, time.UTC)
	s.orders.now = fixedClock(at)

	_, err = s.orders.Reject(s.ctx, s.artisan, order.ID, strings.Repeat("r", models.MaxRejectionReasonLength+1))
	var verrs models.ValidationErrors
	s.Require().ErrorAs(err, &verrs)
	s.True(verrs.Has("rejection_reason"))

	_, err = s.orders.Reject(s.ctx, s.artisan, order.ID, strings.Repeat("é", models.MaxRejectionReasonLength+1))
	s.Require().ErrorAs(err, &verrs)
	s.True(verrs.Has("rejection_reason"))

	_, err = s.orders.Reject(s.ctx, s.artisan, order.ID, "  ")
	s.Require().ErrorAs(err, &verrs)
	s.True(verrs.Has("rejection_reason"))

	rejected, err := s.orders.Reject(s.ctx, s.artisan, order.ID, "  No walnut this season ")
	s.Require().NoError(err)
	s.Equal(models.OrderRejected, rejected.Status)
	s.Equal("No walnut this season", *rejected.RejectionReason)
	s.True(rejected.RejectionDate.Equal(at))

	var stored models.Order
	s.Require().NoError(s.db.First(&stored, order.ID).Error)
	s.Equal(models.OrderRejected, stored.Status)
	s.Require().NotNil(stored.RejectionReason)
	s.Equal("No walnut this season", *stored.RejectionReason)

	_, err = s.orders.Accept(s.ctx, s.artisan, order.ID)
	s.ErrorIs(err, ErrInvalidTransition)

	_, err = s.orders.ConfirmDelivery(s.ctx, s.buyer, order.ID)
	s.ErrorIs(err, ErrInvalidTransition)

	// A rejected order frees the request for a new one
	_, err = s.orders.CreateFromCustomRequest(s.ctx, s.buyer, CustomOrderInput{CustomRequestID: request.ID})
	s.NoError(err)
}

func (s *WorkflowTestSuite) TestRejectionReasonCountsCharacters() {
	request, err := s.requests.Create(s.ctx, s.buyer, CreateCustomRequestInput{ArtisanID: s.artisan.ID, Deadline: s.deadline()})
	s.Require().NoError(err)
	_, err = s.requests.Quote(s.ctx, s.artisan, request.ID, QuoteInput{Accept: true})
	s.Require().NoError(err)
	order, err := s.orders.CreateFromCustomRequest(s.ctx, s.buyer, CustomOrderInput{CustomRequestID: request.ID})
	s.Require().NoError(err)

	// 30 characters, 60 bytes
	reason := strings.Repeat("é", 30)
	rejected, err := s.orders.Reject(s.ctx, s.artisan, order.ID, reason)
	s.Require().NoError(err)
	s.Equal(reason, *rejected.RejectionReason)
}

func (s *WorkflowTestSuite) TestMilestoneRules() {
	_, order := s.acceptedOrder()

	_, err := s.stages.Post(s.ctx, s.other, order.ID, PostMilestoneInput{Status: models.MilestoneInProgress})
	s.ErrorIs(err, ErrForbidden)

	_, err = s.stages.Post(s.ctx, s.artisan, order.ID, PostMilestoneInput{Status: "shipped"})
	var verrs models.ValidationErrors
	s.Require().ErrorAs(err, &verrs)
	s.True(verrs.Has("status"))

	milestone, err := s.stages.Post(s.ctx, s.artisan, order.ID, PostMilestoneInput{})
	s.Require().NoError(err)
	s.Equal(models.MilestonePending, milestone.Status)

	_, err = s.stages.Approve(s.ctx, s.artisan, milestone.ID)
	s.ErrorIs(err, ErrForbidden)

	_, err = s.stages.Approve(s.ctx, s.buyer, milestone.ID)
	s.Require().NoError(err)
	_, err = s.stages.Approve(s.ctx, s.buyer, milestone.ID)
	s.ErrorIs(err, ErrAlreadyApproved)

	// The only milestone is approved, so the order is done
	stored, err := s.orders.Get(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(models.OrderCompleted, stored.Status)

	_, err = s.stages.Approve(s.ctx, s.buyer, 9999)
	s.ErrorIs(err, ErrNotFound)
}

func (s *WorkflowTestSuite) TestApprovingEveryMilestoneCompletesOrder() {
	_, order := s.acceptedOrder()

	first, err := s.stages.Post(s.ctx, s.artisan, order.ID, PostMilestoneInput{})
	s.Require().NoError(err)
	second, err := s.stages.Post(s.ctx, s.artisan, order.ID, PostMilestoneInput{Status: models.MilestoneInProgress})
	s.Require().NoError(err)

	result, err := s.stages.Approve(s.ctx, s.buyer, first.ID)
	s.Require().NoError(err)
	s.Equal(models.OrderAccepted, result.Order.Status)

	result, err = s.stages.Approve(s.ctx, s.buyer, second.ID)
	s.Require().NoError(err)
	s.Equal(models.OrderCompleted, result.Order.Status)

	stored, err := s.orders.Get(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(models.OrderCompleted, stored.Status)
}

func (s *WorkflowTestSuite) TestApprovalBumpsOrderVersion() {
	_, order := s.acceptedOrder()

	first, err := s.stages.Post(s.ctx, s.artisan, order.ID, PostMilestoneInput{})
	s.Require().NoError(err)
	_, err = s.stages.Post(s.ctx, s.artisan, order.ID, PostMilestoneInput{})
	s.Require().NoError(err)

	result, err := s.stages.Approve(s.ctx, s.buyer, first.ID)
	s.Require().NoError(err)
	s.Equal(order.Version+1, result.Order.Version)

	stored, err := loadOrder(s.db, order.ID)
	s.Require().NoError(err)
	s.Equal(order.Version+1, stored.Version)

	// A writer still holding the pre-approval order loses
	_, err = transitionOrder(s.db, order, models.OrderCompleted, time.Now(), nil)
	s.ErrorIs(err, ErrConflict)
}

func (s *WorkflowTestSuite) TestConcurrentApprovalsCompleteOrder() {
	_, order := s.acceptedOrder()

	const count = 4
	ids := make([]uint, count)
	for i := range ids {
		m, err := s.stages.Post(s.ctx, s.artisan, order.ID, PostMilestoneInput{Status: models.MilestoneInProgress})
		s.Require().NoError(err)
		ids[i] = m.ID
	}

	var wg sync.WaitGroup
	errs := make([]error, count)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uint) {
			defer wg.Done()
			// Losers of the order version race retry, as a client would
			for attempt := 0; attempt < count; attempt++ {
				_, errs[i] = s.stages.Approve(s.ctx, s.buyer, id)
				if !errors.Is(errs[i], ErrConflict) {
					return
				}
			}
		}(i, id)
	}
	wg.Wait()

	for _, err := range errs {
		s.NoError(err)
	}

	milestones, err := s.stages.List(s.ctx, order.ID)
	s.Require().NoError(err)
	for _, m := range milestones {
		s.True(m.BuyerApproval)
	}

	stored, err := s.orders.Get(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(models.OrderCompleted, stored.Status)
}

func (s *WorkflowTestSuite) TestMilestoneOnPendingOrder() {
	request, err := s.requests.Create(s.ctx, s.buyer, CreateCustomRequestInput{ArtisanID: s.artisan.ID, Deadline: s.deadline()})
	s.Require().NoError(err)
	_, err = s.requests.Quote(s.ctx, s.artisan, request.ID, QuoteInput{Accept: true})
	s.Require().NoError(err)
	order, err := s.orders.CreateFromCustomRequest(s.ctx, s.buyer, CustomOrderInput{CustomRequestID: request.ID})
	s.Require().NoError(err)

	_, err = s.stages.Post(s.ctx, s.artisan, order.ID, PostMilestoneInput{Status: models.MilestoneInProgress})
	s.ErrorIs(err, ErrInvalidTransition)
}

func (s *WorkflowTestSuite) TestRatingRequiresCompletedOrder() {
	_, order := s.acceptedOrder()

	_, err := s.ratings.Submit(s.ctx, s.buyer, order.ID, 5, nil)
	s.ErrorIs(err, ErrInvalidTransition)

	_, err = s.ratings.Submit(s.ctx, s.artisan, order.ID, 5, nil)
	s.ErrorIs(err, ErrForbidden)

	var count int64
	s.db.Model(&models.Rating{}).Count(&count)
	s.Equal(int64(0), count)
}

func (s *WorkflowTestSuite) TestConfirmDeliveryIsIdempotent() {
	_, order := s.acceptedOrder()

	confirmed, err := s.orders.ConfirmDelivery(s.ctx, s.buyer, order.ID)
	s.Require().NoError(err)
	s.True(confirmed.DeliveryConfirmed)
	s.Equal(models.OrderAccepted, confirmed.Status)
	version := confirmed.Version

	again, err := s.orders.ConfirmDelivery(s.ctx, s.buyer, order.ID)
	s.Require().NoError(err)
	s.True(again.DeliveryConfirmed)
	s.Equal(version, again.Version)

	_, err = s.orders.ConfirmDelivery(s.ctx, s.artisan, order.ID)
	s.ErrorIs(err, ErrForbidden)
}

func (s *WorkflowTestSuite) TestStaleVersionConflicts() {
	_, order := s.acceptedOrder()

	first, err := loadOrder(s.db, order.ID)
	s.Require().NoError(err)
	stale, err := loadOrder(s.db, order.ID)
	s.Require().NoError(err)

	_, err = transitionOrder(s.db, first, models.OrderCompleted, time.Now(), nil)
	s.Require().NoError(err)

	// The second writer still holds the old version
	_, err = transitionOrder(s.db, stale, models.OrderCompleted, time.Now(), nil)
	s.ErrorIs(err, ErrConflict)
}

func (s *WorkflowTestSuite) TestConcurrentAcceptHasOneWinner() {
	request, err := s.requests.Create(s.ctx, s.buyer, CreateCustomRequestInput{ArtisanID: s.artisan.ID, Deadline: s.deadline()})
	s.Require().NoError(err)
	_, err = s.requests.Quote(s.ctx, s.artisan, request.ID, QuoteInput{Accept: true})
	s.Require().NoError(err)
	order, err := s.orders.CreateFromCustomRequest(s.ctx, s.buyer, CustomOrderInput{CustomRequestID: request.ID})
	s.Require().NoError(err)

	const writers = 5
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.orders.Accept(s.ctx, s.artisan, order.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.True(errors.Is(err, ErrConflict) || errors.Is(err, ErrInvalidTransition), "unexpected error: %v", err)
	}
	s.Equal(1, succeeded)

	stored, err := s.orders.Get(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(models.OrderAccepted, stored.Status)
	s.Equal(2, stored.Version)
}

func TestUpdateVersioned(t *testing.T) {
	db := setupServiceDB(t)
	buyer := createUser(t, db, "auth0|buyer", models.UserTypeBuyer)
	artisan := createUser(t, db, "auth0|artisan", models.UserTypeArtisan)

	request := models.CustomDesignRequest{
		BuyerID:   buyer.ID,
		ArtisanID: artisan.ID,
		Deadline:  time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		Status:    models.CustomRequestMaterialSourcing,
		Version:   1,
	}
	require.NoError(t, db.Create(&request).Error)

	err := updateVersioned(db, &models.CustomDesignRequest{}, request.ID, 1, map[string]interface{}{"description": "first"})
	require.NoError(t, err)

	err = updateVersioned(db, &models.CustomDesignRequest{}, request.ID, 1, map[string]interface{}{"description": "second"})
	assert.ErrorIs(t, err, ErrConflict)

	var stored models.CustomDesignRequest
	require.NoError(t, db.First(&stored, request.ID).Error)
	assert.Equal(t, "first", stored.Description)
	assert.Equal(t, 2, stored.Version)
}

func TestWorkflowErrorIs(t *testing.T) {
	err := notFound("order")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "order not found", err.Error())

	wrapped := lookupErr(gorm.ErrRecordNotFound, "milestone")
	assert.ErrorIs(t, wrapped, ErrNotFound)

	other := lookupErr(errors.New("connection reset"), "milestone")
	assert.NotErrorIs(t, other, ErrNotFound)
	assert.Contains(t, other.Error(), "failed to load milestone")
}
