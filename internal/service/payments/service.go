package payments

import (
	"context"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	stripe "github.com/stripe/stripe-go/v75"

	"venue-backend/internal/apperr"
	"venue-backend/internal/domain/billing"
	"venue-backend/internal/domain/purchaser"
	"venue-backend/internal/infra/stripeclient"
	"venue-backend/internal/service/entities"
)

// Provider is the payment gateway. *stripeclient.Client implements it.
type Provider interface {
	NewPaymentIntent(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type Repository interface {
	Create(ctx context.Context, p *billing.Payment) error
	ListByUser(ctx context.Context, userID uint) ([]billing.Payment, error)
	ListAll(ctx context.Context) ([]billing.Payment, error)
}

type Config struct {
	Currency           string
	PlatformFeePercent int64
	AppURL             string
}

type Service struct {
	provider Provider
	repo     Repository
	entities entities.Reader
	cfg      Config
	log      *logrus.Logger
}

func NewService(provider Provider, repo Repository, reader entities.Reader, cfg Config, log *logrus.Logger) *Service {
	cfg.Currency = strings.ToLower(cfg.Currency)
	return &Service{provider: provider, repo: repo, entities: reader, cfg: cfg, log: log}
}

type Request struct {
	Purchaser          purchaser.Purchaser
	EntityType         string
	EntityID           uint
	AmountCents        int64
	ConnectedAccountID string
}

type IntentResult struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	PaymentID       uint   `json:"paymentId"`
}

type SessionResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
	PaymentID uint   `json:"paymentId"`
}

// prepared is a validated request plus everything derived from it.
type prepared struct {
	handler  entities.Handler
	ref      billing.Reference
	metadata map[string]string
	amount   int64
	fee      int64
	account  string
	email    string
}

func (s *Service) prepare(ctx context.Context, req Request) (*prepared, error) {
	if err := req.Purchaser.Validate(); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	t, err := billing.ParseEntityType(req.EntityType)
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	if req.EntityID == 0 {
		return nil, apperr.Validation("entity_id is required")
	}
	if req.AmountCents <= 0 {
		return nil, apperr.Validation("amount must be greater than zero")
	}

	h, err := entities.Lookup(t)
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	if !h.Purchasable {
		return nil, apperr.Validation("%s payments are no longer accepted", t)
	}
	if h.RequiresUser && req.Purchaser.IsGuest() {
		return nil, apperr.Validation("sign in to buy a %s", strings.ToLower(h.Label))
	}
	due, found, err := h.Price(ctx, s.entities, req.EntityID)
	if err != nil {
		return nil, apperr.Internal(err, "look up payment entity")
	}
	if !found {
		return nil, apperr.NotFound("%s %d not found", t, req.EntityID)
	}
	if req.AmountCents != due {
		return nil, apperr.Validation("amount %d does not match the %d due for %s %d", req.AmountCents, due, t, req.EntityID)
	}

	ref := billing.Reference{UserID: req.Purchaser.UserID, EntityType: t, EntityID: req.EntityID}
	p := &prepared{
		handler:  h,
		ref:      ref,
		metadata: ref.Metadata(),
		amount:   due,
		account:  strings.TrimSpace(req.ConnectedAccountID),
		email:    req.Purchaser.Email(),
	}
	if p.account != "" {
		p.fee = billing.PlatformFee(p.amount, s.cfg.PlatformFeePercent)
	}
	return p, nil
}

func (p *prepared) payment(currency string) *billing.Payment {
	pay := &billing.Payment{
		UserID:           p.ref.UserID,
		EntityType:       p.ref.EntityType,
		EntityID:         p.ref.EntityID,
		AmountCents:      p.amount,
		PlatformFeeCents: p.fee,
		Currency:         currency,
		Status:           billing.StatusPending,
	}
	if p.account != "" {
		acct := p.account
		pay.ConnectedAccountID = &acct
	}
	return pay
}

// CreatePaymentIntent opens an embedded card payment and records it as pending.
func (s *Service) CreatePaymentIntent(ctx context.Context, req Request) (*IntentResult, error) {
	p, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.amount),
		Currency: stripe.String(s.cfg.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: p.metadata,
	}
	if p.account != "" {
		params.ApplicationFeeAmount = stripe.Int64(p.fee)
		params.TransferData = &stripe.PaymentIntentTransferDataParams{Destination: stripe.String(p.account)}
	}
	if p.email != "" {
		params.ReceiptEmail = stripe.String(p.email)
	}
	params.Context = ctx

	pi, err := s.provider.NewPaymentIntent(params)
	if err != nil {
		return nil, s.gatewayError(err, p)
	}

	pay := p.payment(s.cfg.Currency)
	pay.PaymentIntentID = stripe.String(pi.ID)
	if err := s.repo.Create(ctx, pay); err != nil {
		s.log.WithError(err).WithField("payment_intent_id", pi.ID).Error("payment intent created but not recorded")
		return nil, apperr.Transaction(err, "record payment")
	}

	s.logCreated(pay, "payment_intent_id", pi.ID)
	return &IntentResult{ClientSecret: pi.ClientSecret, PaymentIntentID: pi.ID, PaymentID: pay.ID}, nil
}

// CreateCheckoutSession opens a hosted checkout and records it as pending.
func (s *Service) CreateCheckoutSession(ctx context.Context, req Request) (*SessionResult, error) {
	p, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.cfg.AppURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(s.cfg.AppURL + "/checkout/cancel"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(s.cfg.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.handler.Label + " #" + strconv.FormatUint(uint64(p.ref.EntityID), 10)),
					},
					UnitAmount: stripe.Int64(p.amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: p.metadata,
		// Copy the metadata onto the intent too, so payment_intent.* events
		// route the same way as checkout.session.* ones.
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: p.metadata,
		},
	}
	if p.account != "" {
		params.PaymentIntentData.ApplicationFeeAmount = stripe.Int64(p.fee)
		params.PaymentIntentData.TransferData = &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
			Destination: stripe.String(p.account),
		}
	}
	if p.ref.UserID != nil {
		params.ClientReferenceID = stripe.String(p.metadata[billing.MetaUserID])
	}
	if p.email != "" {
		params.CustomerEmail = stripe.String(p.email)
	}
	params.Context = ctx

	cs, err := s.provider.NewCheckoutSession(params)
	if err != nil {
		return nil, s.gatewayError(err, p)
	}

	pay := p.payment(s.cfg.Currency)
	pay.CheckoutSessionID = stripe.String(cs.ID)
	if err := s.repo.Create(ctx, pay); err != nil {
		s.log.WithError(err).WithField("checkout_session_id", cs.ID).Error("checkout session created but not recorded")
		return nil, apperr.Transaction(err, "record payment")
	}

	s.logCreated(pay, "checkout_session_id", cs.ID)
	return &SessionResult{SessionID: cs.ID, URL: cs.URL, PaymentID: pay.ID}, nil
}

func (s *Service) PaymentHistory(ctx context.Context, userID uint) ([]billing.Payment, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) AllPayments(ctx context.Context) ([]billing.Payment, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) gatewayError(err error, p *prepared) error {
	gerr := stripeclient.ClassifyError(err)
	s.log.WithError(err).WithFields(logrus.Fields{
		"entity_type": p.ref.EntityType,
		"entity_id":   p.ref.EntityID,
		"code":        gerr.Code,
	}).Warn("payment provider call failed")
	return gerr
}

func (s *Service) logCreated(pay *billing.Payment, key, value string) {
	s.log.WithFields(logrus.Fields{
		"payment_id":   pay.ID,
		"entity_type":  pay.EntityType,
		"entity_id":    pay.EntityID,
		"amount_cents": pay.AmountCents,
		"fee_cents":    pay.PlatformFeeCents,
		key:            value,
	}).Info("payment created")
}
