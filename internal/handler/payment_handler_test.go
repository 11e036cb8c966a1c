package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-billing-api/internal/models"
	"github.com/noah-isme/academy-billing-api/internal/service"
)

type paymentRepoStub struct {
	byStudent []models.Payment
	byAccount []models.Payment

	studentID string
	accountID string
}

func (m *paymentRepoStub) CreateTx(ctx context.Context, tx *sqlx.Tx, payment *models.Payment) error {
	return nil
}

func (m *paymentRepoStub) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	return nil, nil
}

func (m *paymentRepoStub) FindByAccount(ctx context.Context, accountID string) ([]models.Payment, error) {
	m.accountID = accountID
	return m.byAccount, nil
}

func (m *paymentRepoStub) FindByStudent(ctx context.Context, studentID string) ([]models.Payment, error) {
	m.studentID = studentID
	return m.byStudent, nil
}

func (m *paymentRepoStub) MarkVoid(ctx context.Context, id string) error {
	return nil
}

func newPaymentHandler(repo *paymentRepoStub) *PaymentHandler {
	cacheSvc := service.NewCacheService(nil, nil, 0, zap.NewNop(), false)
	svc := service.NewPaymentService(repo, nil, nil, cacheSvc, zap.NewNop())
	return NewPaymentHandler(svc)
}

func TestPaymentHandlerListByStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &paymentRepoStub{byStudent: []models.Payment{
		{ID: "pay-1", AccountReceivableID: "rec-1", AmountPaid: decimal.NewFromInt(100)},
	}}
	handler := newPaymentHandler(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/payments?studentId=stu-1", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stu-1", repo.studentID)
	assert.Contains(t, w.Body.String(), "pay-1")
}

func TestPaymentHandlerListByAccount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &paymentRepoStub{byAccount: []models.Payment{
		{ID: "pay-2", AccountReceivableID: "rec-1", AmountPaid: decimal.NewFromInt(50)},
	}}
	handler := newPaymentHandler(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/payments?accountId=rec-1", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rec-1", repo.accountID)
}

func TestPaymentHandlerListRequiresSingleFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newPaymentHandler(&paymentRepoStub{})

	for _, query := range []string{"", "?studentId=stu-1&accountId=rec-1"} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		req, _ := http.NewRequest(http.MethodGet, "/payments"+query, nil)
		c.Request = req

		handler.List(c)
		require.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestPaymentHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newPaymentHandler(&paymentRepoStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString(`{"account_receivable_id":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
