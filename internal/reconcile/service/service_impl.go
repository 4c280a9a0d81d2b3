package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/linkwell/orderdesk/internal/actorctx"
	"github.com/linkwell/orderdesk/internal/config"
	orderdomain "github.com/linkwell/orderdesk/internal/order/domain"
	"github.com/linkwell/orderdesk/internal/reconcile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultLimit = 100

type paymentLookup interface {
	retrievePaymentIntent(ctx context.Context, intentID string) (stripePaymentIntent, error)
	retrieveCheckoutSession(ctx context.Context, sessionID string) (stripeCheckoutSession, error)
}

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Config    config.Config
	OrderRepo orderdomain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	orderRepo orderdomain.Repository
	stripe    paymentLookup
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("reconcile.service"),
		orderRepo: p.OrderRepo,
		stripe:    newStripeClient(p.Config.StripeSecretKey),
	}
}

func (s *Service) ReconcileOrders(ctx context.Context, req domain.ReconcileRequest) (domain.Report, error) {
	if !actorctx.IsInternal(ctx) {
		return domain.Report{}, domain.ErrForbidden
	}

	orders, err := s.loadOrders(ctx, req)
	if err != nil {
		return domain.Report{}, err
	}

	report := domain.Report{Results: []domain.OrderResult{}}
	for _, order := range orders {
		result := s.reconcileOrder(ctx, order)
		report.Checked++
		switch result.Outcome {
		case domain.OutcomeMatched:
			report.Matched++
		case domain.OutcomeMismatched:
			report.Mismatched++
		default:
			report.Skipped++
		}
		report.Results = append(report.Results, result)
	}
	return report, nil
}

func (s *Service) loadOrders(ctx context.Context, req domain.ReconcileRequest) ([]*orderdomain.Order, error) {
	if len(req.OrderIDs) > 0 {
		orders := make([]*orderdomain.Order, 0, len(req.OrderIDs))
		for _, raw := range req.OrderIDs {
			id, err := snowflake.ParseString(strings.TrimSpace(raw))
			if err != nil {
				return nil, orderdomain.ErrInvalidID
			}
			order, err := s.orderRepo.FindByID(ctx, s.db, id)
			if err != nil {
				return nil, err
			}
			if order == nil {
				return nil, orderdomain.ErrNotFound
			}
			orders = append(orders, order)
		}
		return orders, nil
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	var orders []*orderdomain.Order
	err := s.db.WithContext(ctx).
		Where("status = ? AND payment_ref <> ''", orderdomain.StatusConfirmed).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Service) reconcileOrder(ctx context.Context, order *orderdomain.Order) domain.OrderResult {
	result := domain.OrderResult{
		OrderID:     order.ID.String(),
		PaymentRef:  order.PaymentRef,
		OrderAmount: order.RetailTotal,
	}
	if strings.TrimSpace(order.PaymentRef) == "" {
		result.Outcome = domain.OutcomeNoPayment
		return result
	}

	charged, currency, status, err := s.lookupPayment(ctx, order.PaymentRef)
	if err != nil {
		s.log.Warn("payment lookup skipped",
			zap.String("order_id", order.ID.String()),
			zap.String("payment_ref", order.PaymentRef),
			zap.Error(err),
		)
		result.Outcome = domain.OutcomeLookupFail
		result.MismatchReason = err.Error()
		return result
	}

	result.ChargedAmount = charged
	result.Currency = currency
	result.PaymentStatus = status

	switch {
	case charged != order.RetailTotal:
		result.Outcome = domain.OutcomeMismatched
		result.MismatchReason = "charged amount differs from order retail total"
	case currency != "" && !strings.EqualFold(currency, order.Currency):
		result.Outcome = domain.OutcomeMismatched
		result.MismatchReason = "currency differs from order currency"
	default:
		result.Outcome = domain.OutcomeMatched
	}
	return result
}

func (s *Service) lookupPayment(ctx context.Context, ref string) (amount int64, currency, status string, err error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "cs_") {
		session, err := s.stripe.retrieveCheckoutSession(ctx, ref)
		if err != nil {
			return 0, "", "", err
		}
		return session.AmountTotal, session.Currency, session.PaymentStatus, nil
	}
	intent, err := s.stripe.retrievePaymentIntent(ctx, ref)
	if err != nil {
		return 0, "", "", err
	}
	return intent.Amount, intent.Currency, intent.Status, nil
}
